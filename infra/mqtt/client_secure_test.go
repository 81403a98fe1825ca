package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned stores a depot controller certificate that doubles as its own CA.
func writeSelfSigned(t *testing.T) Config {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(42),
		Subject:      pkix.Name{CommonName: "depot-controller"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := Config{
		UseTLS:     true,
		ClientCert: filepath.Join(dir, "client.pem"),
		ClientKey:  filepath.Join(dir, "client.key"),
		CABundle:   filepath.Join(dir, "ca.pem"),
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(cfg.ClientCert, certPEM, 0o600))
	require.NoError(t, os.WriteFile(cfg.ClientKey, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	require.NoError(t, os.WriteFile(cfg.CABundle, certPEM, 0o600))
	return cfg
}

func TestLoadTLSConfig(t *testing.T) {
	cfg := writeSelfSigned(t)
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsCfg.MinVersion)
}

func TestLoadTLSConfigErrors(t *testing.T) {
	_, err := Config{UseTLS: true, ClientCert: "client.pem"}.LoadTLSConfig()
	assert.Error(t, err, "incomplete file set")

	cfg := writeSelfSigned(t)
	cfg.CABundle = filepath.Join(t.TempDir(), "missing.pem")
	_, err = cfg.LoadTLSConfig()
	assert.ErrorContains(t, err, "read ca")

	preset := &tls.Config{ServerName: "broker.depot"}
	got, err := Config{UseTLS: true, TLSConfig: preset}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Same(t, preset, got)
}

func TestNewClientOptionsAuth(t *testing.T) {
	base := Config{Broker: "tcp://localhost:1883", ClientID: "depot-7", Username: "planner", Password: "secret"}
	opts, err := NewClientOptions(base)
	require.NoError(t, err)
	assert.Equal(t, "planner", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, "depot-7", opts.ClientID)
	assert.True(t, opts.AutoReconnect)

	certOnly := base
	certOnly.AuthMethod = "certificate"
	opts, err = NewClientOptions(certOnly)
	require.NoError(t, err)
	assert.Empty(t, opts.Username)

	withTLS := writeSelfSigned(t)
	withTLS.Broker = "ssl://localhost:8883"
	opts, err = NewClientOptions(withTLS)
	require.NoError(t, err)
	assert.NotNil(t, opts.TLSConfig)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate(), "disabled publisher is valid")
	assert.Error(t, Config{Broker: "tcp://b:1883", QoS: 3}.Validate())
	assert.Error(t, Config{Broker: "tcp://b:1883", MaxRetries: -1}.Validate())
	assert.False(t, Config{}.Enabled())
}
