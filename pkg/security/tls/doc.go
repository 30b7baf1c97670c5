// Package tls loads the certificate/key pair the development server uses
// for HTTPS.
//
// # Usage
//
//	material, err := tls.Load("ssl/server.key", "ssl/server.crt")
//	if err != nil {
//	    return err // *config.ConfigurationError when a file is missing
//	}
//	srv.TLSConfig = material.ServerConfig()
//
// Load never caches: the server lifecycle manager calls it on every start so
// certificate rotation takes effect on the next restart.
package tls
