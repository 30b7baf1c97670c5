// Package reload turns file change notifications into serialized server
// restarts.
//
// Two stages are composed in sequence:
//
//   - Debouncer collapses a burst of notifications into one trigger. Every
//     notification resets the quiet window; only the last one fires.
//   - Scheduler runs restart requests one at a time. A request that arrives
//     while another is executing queues behind it and then runs its own full
//     cycle. Requests are counted, not coalesced, once they reach this stage.
//
// A restart that has started executing always runs to completion.
package reload
