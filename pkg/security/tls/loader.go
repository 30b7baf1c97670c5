package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mercator-hq/devserver/pkg/config"
)

// Material is a certificate/key pair read from disk, ready to configure a
// TLS listener.
type Material struct {
	// Certificate is the parsed key pair.
	Certificate tls.Certificate

	// Leaf is the parsed leaf certificate.
	Leaf *x509.Certificate

	// KeyPath and CertPath are the files the material was read from.
	KeyPath  string
	CertPath string
}

// Load reads the key and certificate at keyPath and certPath.
//
// A path that does not exist yields a *config.ConfigurationError naming the
// missing file and the flag that supplies it. Nothing is cached: every call
// reads the files again so a rotated certificate is picked up on the next
// server start.
func Load(keyPath, certPath string) (*Material, error) {
	if err := requireFile(keyPath, "tls.key_file", "SSL key", "--ssl-key"); err != nil {
		return nil, err
	}
	if err := requireFile(certPath, "tls.cert_file", "SSL certificate", "--ssl-cert"); err != nil {
		return nil, err
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSL key %q: %w", keyPath, err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSL certificate %q: %w", certPath, err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, &config.ConfigurationError{
			Field:   "tls",
			Message: fmt.Sprintf("SSL key %q and certificate %q do not form a valid pair", keyPath, certPath),
			Err:     err,
		}
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, &config.ConfigurationError{
			Field:   "tls.cert_file",
			Message: fmt.Sprintf("failed to parse SSL certificate %q", certPath),
			Err:     err,
		}
	}
	cert.Leaf = leaf

	return &Material{
		Certificate: cert,
		Leaf:        leaf,
		KeyPath:     keyPath,
		CertPath:    certPath,
	}, nil
}

// ServerConfig returns a tls.Config serving this material.
func (m *Material) ServerConfig() *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{m.Certificate},
		NextProtos:   []string{"h2", "http/1.1"},
	}
}

func requireFile(path, field, what, flag string) error {
	if path == "" {
		return config.NewConfigurationError(field,
			"%s path is empty, please provide a path to an existing file with %s", what, flag)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config.NewConfigurationError(field,
			"%s couldn't be found in %q, please provide a path to an existing file with %s", what, path, flag)
	} else if err != nil {
		return &config.ConfigurationError{
			Field:   field,
			Message: fmt.Sprintf("cannot access %s %q", what, path),
			Err:     err,
		}
	}
	return nil
}
