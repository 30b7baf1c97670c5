// Package watch reports file changes under one or more directories.
//
// Watcher wraps fsnotify, adds new subdirectories as they appear and
// translates raw events into add, change and delete notifications for a
// Sink. It does not debounce: bursts are collapsed downstream by the reload
// scheduler.
package watch
