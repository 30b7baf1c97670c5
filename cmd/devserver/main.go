// Devserver serves a web application in development and restarts the server
// whenever its sources change.
//
// It binds an HTTP or HTTPS listener, mounts an optional custom server
// module and the configured addons, watches the filesystem and runs a
// stop, invalidate, start cycle after every burst of changes.
//
// Usage:
//
//	# Serve with ./devserver.yaml (or defaults when it is missing)
//	devserver serve
//
//	# Serve HTTPS on another port
//	devserver serve --port 8443 --ssl --ssl-key ssl/server.key --ssl-cert ssl/server.crt
//
//	# Show the latest lifecycle events
//	devserver history --limit 20
//
//	# Show version information
//	devserver version
package main

func main() {
	Execute()
}
