package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// selfSignedPair writes a self-signed cert/key pair to dir and returns
// its parsed certificate.
func selfSignedPair(t *testing.T, dir string, notAfter time.Time) (*x509.Certificate, string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "client-1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPath := filepath.Join(dir, "client.crt")
	keyPath := filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, certPath, keyPath
}

func TestLoadClientCertificateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	_, certPath, keyPath := selfSignedPair(t, dir, time.Now().Add(90*24*time.Hour))

	loaded, err := LoadClientCertificate(certPath, keyPath)
	require.NoError(t, err)
	require.Equal(t, "client-1", loaded.Leaf.Subject.CommonName)
}

func TestLoadCACertPool(t *testing.T) {
	dir := t.TempDir()
	_, certPath, _ := selfSignedPair(t, dir, time.Now().Add(90*24*time.Hour))

	pool, err := LoadCACertPool(certPath)
	require.NoError(t, err)
	require.NotNil(t, pool)
}

func TestCertExists(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "client.crt")
	keyPath := filepath.Join(dir, "client.key")

	require.False(t, CertExists(certPath, keyPath))

	_ = os.WriteFile(certPath, []byte("cert"), 0o600)
	require.False(t, CertExists(certPath, keyPath))

	_ = os.WriteFile(keyPath, []byte("key"), 0o600)
	require.True(t, CertExists(certPath, keyPath))
}

func TestCertNeedsRotation(t *testing.T) {
	tests := []struct {
		name     string
		notAfter time.Time
		want     bool
	}{
		{"expiring in 1 day", time.Now().Add(24 * time.Hour), true},
		{"expiring in 29 days", time.Now().Add(29 * 24 * time.Hour), true},
		{"expiring in 31 days", time.Now().Add(31 * 24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cert := &x509.Certificate{NotAfter: tt.notAfter}
			require.Equal(t, tt.want, CertNeedsRotation(cert))
		})
	}
	require.True(t, CertNeedsRotation(nil))
}

func TestGetCertExpiryAndRemaining(t *testing.T) {
	expiry := time.Now().Add(45 * 24 * time.Hour)
	cert := &x509.Certificate{NotAfter: expiry}

	require.True(t, GetCertExpiry(cert).Equal(expiry))
	require.True(t, GetCertExpiry(nil).IsZero())

	remaining := GetCertTimeRemaining(cert)
	require.InDelta(t, 45*24*time.Hour, remaining, float64(time.Second))
	require.Zero(t, GetCertTimeRemaining(nil))
}

func TestValidateCertChain(t *testing.T) {
	dir := t.TempDir()
	cert, _, _ := selfSignedPair(t, dir, time.Now().Add(90*24*time.Hour))

	require.NoError(t, ValidateCertChain(cert, cert))
	require.Error(t, ValidateCertChain(nil, cert))
	require.Error(t, ValidateCertChain(cert, nil))
}

func TestGetCertInfo(t *testing.T) {
	dir := t.TempDir()
	cert, _, _ := selfSignedPair(t, dir, time.Now().Add(90*24*time.Hour))

	info := GetCertInfo(cert)
	require.Equal(t, "client-1", info["subject"])

	nilInfo := GetCertInfo(nil)
	require.Contains(t, nilInfo, "error")
}

func TestRemoveCerts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.crt"), []byte("cert"), 0o600))

	require.NoError(t, RemoveCerts(dir))
	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}
