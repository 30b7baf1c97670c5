// Package servermodule loads the optional custom server module from a
// directory on disk.
//
// A module root holds an index.yaml naming a registered module type and its
// settings:
//
//	type: mock
//	name: api-mocks
//	settings:
//	  routes:
//	    - method: GET
//	      path: /api/users
//	      file: fixtures/users.json
//
// Module types are registered with Register. Each constructor decides up front
// whether it produces a direct handler or a factory (see pipeline.Module); the
// loader never inspects callables. Two types are built in:
//
//   - mock: a direct handler serving canned responses
//   - proxy: a factory mounting reverse proxies by path prefix
//
// Every file the loader reads goes through modcache, so evicting the module
// root from the cache is enough for the next load to see fresh files.
package servermodule
