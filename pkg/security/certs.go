package security

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// certRotationThreshold is the remaining-validity window below which
// CertNeedsRotation reports true.
const certRotationThreshold = 30 * 24 * time.Hour

// LoadClientCertificate loads the mTLS client identity (cert + key)
// every scheduler component presents to the object store and the
// broker.
func LoadClientCertificate(certFile, keyFile string) (*tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading client certificate: %w", err)
	}
	if cert.Leaf == nil {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("parsing client certificate: %w", err)
		}
		cert.Leaf = leaf
	}
	return &cert, nil
}

// LoadCACertPool loads a PEM-encoded CA bundle into a cert pool for
// verifying the object store's or broker's server certificate.
func LoadCACertPool(caFile string) (*x509.CertPool, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading CA bundle %s: %w", caFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", caFile)
	}
	return pool, nil
}

// LoadCACertFromFile loads a single PEM-encoded CA certificate,
// e.g. for embedding a cert's Subject/NotAfter in a status report.
func LoadCACertFromFile(caFile string) (*x509.Certificate, error) {
	data, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("reading CA certificate: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("decoding CA certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing CA certificate: %w", err)
	}
	return cert, nil
}

// CertExists reports whether both halves of a client certificate are
// present at certFile/keyFile.
func CertExists(certFile, keyFile string) bool {
	_, err1 := os.Stat(certFile)
	_, err2 := os.Stat(keyFile)
	return err1 == nil && err2 == nil
}

// CertNeedsRotation reports whether cert expires within the rotation
// threshold (or is nil).
func CertNeedsRotation(cert *x509.Certificate) bool {
	if cert == nil {
		return true
	}
	return time.Until(cert.NotAfter) < certRotationThreshold
}

// GetCertExpiry returns cert's expiry time, or the zero value for nil.
func GetCertExpiry(cert *x509.Certificate) time.Time {
	if cert == nil {
		return time.Time{}
	}
	return cert.NotAfter
}

// GetCertTimeRemaining returns the time remaining until cert expires.
func GetCertTimeRemaining(cert *x509.Certificate) time.Duration {
	if cert == nil {
		return 0
	}
	return time.Until(cert.NotAfter)
}

// ValidateCertChain verifies that cert chains to ca for client or
// server auth.
func ValidateCertChain(cert, ca *x509.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is nil")
	}
	if ca == nil {
		return fmt.Errorf("CA certificate is nil")
	}

	roots := x509.NewCertPool()
	roots.AddCert(ca)

	opts := x509.VerifyOptions{
		Roots:     roots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}
	if _, err := cert.Verify(opts); err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}
	return nil
}

// GetCertInfo returns human-readable information about a certificate.
func GetCertInfo(cert *x509.Certificate) map[string]any {
	if cert == nil {
		return map[string]any{"error": "certificate is nil"}
	}
	return map[string]any{
		"subject":       cert.Subject.CommonName,
		"issuer":        cert.Issuer.CommonName,
		"serial_number": cert.SerialNumber.String(),
		"not_before":    cert.NotBefore.Format(time.RFC3339),
		"not_after":     cert.NotAfter.Format(time.RFC3339),
		"ext_key_usage": describeExtKeyUsage(cert.ExtKeyUsage),
	}
}

func describeExtKeyUsage(usages []x509.ExtKeyUsage) []string {
	var result []string
	for _, usage := range usages {
		switch usage {
		case x509.ExtKeyUsageClientAuth:
			result = append(result, "ClientAuth")
		case x509.ExtKeyUsageServerAuth:
			result = append(result, "ServerAuth")
		}
	}
	return result
}

// RemoveCerts removes a client certificate's directory.
func RemoveCerts(dir string) error {
	return os.RemoveAll(filepath.Clean(dir))
}
