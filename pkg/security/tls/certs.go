package tls

import (
	"crypto/x509"
	"fmt"
	"time"
)

// ExpiryWarning returns a human-readable warning when cert is expired, not
// yet valid, or expires within 30 days. It returns "" otherwise.
//
// Development certificates are frequently self-signed and stale, so an
// expired certificate is reported rather than rejected.
func ExpiryWarning(cert *x509.Certificate, now time.Time) string {
	if cert == nil {
		return ""
	}

	switch {
	case now.Before(cert.NotBefore):
		return fmt.Sprintf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	case now.After(cert.NotAfter):
		return fmt.Sprintf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}

	days := int(cert.NotAfter.Sub(now).Hours() / 24)
	if days < 30 {
		return fmt.Sprintf("certificate expires in %d days (on %s)", days, cert.NotAfter.Format("2006-01-02"))
	}
	return ""
}
