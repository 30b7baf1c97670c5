// Package security holds the transport security pieces of the development
// server. Subpackage tls loads the certificate/key pair used for HTTPS.
package security
