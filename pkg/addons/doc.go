// Package addons provides the built-in addons that contribute middleware to
// the request pipeline.
//
// Addons are selected by name in the configuration and mounted in that
// order, after the custom server module:
//
//	addons:
//	  - name: requestid
//	  - name: logging
//	  - name: cors
//	    settings:
//	      allowed_origins: ["http://localhost:3000"]
//	  - name: metrics
//	  - name: nocache
//	  - name: tracing
//	  - name: apikey
//	    settings:
//	      keys:
//	        - key_env: DEVSERVER_API_KEY
//	      skip_paths: ["/_devserver/"]
//
// Every addon implements pipeline.MiddlewareHook and mounts its middleware
// onto the App it is handed during a build.
package addons
