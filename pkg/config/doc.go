// Package config provides configuration loading, defaults and validation for
// the development server.
//
// Configuration is read from a YAML file (devserver.yaml by default), decoded
// on top of the defaults, overridden from DEVSERVER_* environment variables
// and validated with go-playground/validator struct tags.
//
// # Example
//
//	server:
//	  port: 4200
//	  root_url: /app/
//	  server_module_root: ./server
//	tls:
//	  enabled: false
//	watch:
//	  debounce_interval: 100ms
//	addons:
//	  - name: logging
//	  - name: cors
//	    settings:
//	      allowed_origins: ["*"]
//	journal:
//	  backend: sqlite
//	  path: .devserver/journal.db
//
// # Errors
//
// Every validation failure is reported as a *ConfigurationError wrapping a
// ValidationError that lists each offending field by its YAML path.
package config
