// Package keys loads, generates and publishes the RSA key pair used to sign
// access tokens.  Peer services verify access tokens with the public half,
// served as a JWK set.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoPrivateKey is returned when the PEM input holds no RSA private key.
var ErrNoPrivateKey = errors.New("no RSA private key in PEM data")

// Loader reads the private key from disk on first use and caches it.  A
// failed read is not cached, so a key dropped in place later is picked up
// by the next call.
type Loader struct {
	path string

	mu  sync.Mutex
	key *rsa.PrivateKey
}

// NewLoader returns a Loader for the PEM file at path.
func NewLoader(path string) *Loader { return &Loader{path: path} }

// NewStaticLoader returns a Loader that always yields key.
func NewStaticLoader(key *rsa.PrivateKey) *Loader { return &Loader{key: key} }

// Private returns the signing key.
func (l *Loader) Private() (*rsa.PrivateKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.key != nil {
		return l.key, nil
	}
	if l.path == "" {
		return nil, errors.New("private key path not configured")
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	l.key = key
	return key, nil
}

// Public returns the verification key derived from the private key.
func (l *Loader) Public() (*rsa.PublicKey, error) {
	key, err := l.Private()
	if err != nil {
		return nil, err
	}
	return &key.PublicKey, nil
}

// ParsePrivateKeyPEM decodes a PKCS#1 or PKCS#8 RSA private key.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrNoPrivateKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs1 key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse pkcs8 key: %w", err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrNoPrivateKey
		}
		return key, nil
	default:
		return nil, ErrNoPrivateKey
	}
}

// Generate creates a new RSA key of the given size.  A nil reader means
// crypto/rand.
func Generate(bits int, reader io.Reader) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, fmt.Errorf("key size %d too small: use at least 2048 bits", bits)
	}
	if reader == nil {
		reader = rand.Reader
	}
	return rsa.GenerateKey(reader, bits)
}

// EncodePrivatePEM encodes key as a PKCS#1 PEM block.
func EncodePrivatePEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

// EncodePublicPEM encodes pub as a PKCS#1 PEM block.
func EncodePublicPEM(pub *rsa.PublicKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(pub)})
}

// WritePEMPair writes privateKey.pem and publicKey.pem into dir, creating
// it when missing.  The private key file is readable by the owner only.
func WritePEMPair(dir string, key *rsa.PrivateKey) (privPath, pubPath string, err error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", fmt.Errorf("create key dir: %w", err)
	}
	privPath = filepath.Join(dir, "privateKey.pem")
	pubPath = filepath.Join(dir, "publicKey.pem")
	if err := os.WriteFile(privPath, EncodePrivatePEM(key), 0o600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, EncodePublicPEM(&key.PublicKey), 0o644); err != nil {
		return "", "", fmt.Errorf("write public key: %w", err)
	}
	return privPath, pubPath, nil
}
