// Package keys generates and persists the server's RSA keypair.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// HandshakeKeyBits is the modulus size required by the handshake codec.
const HandshakeKeyBits = 4096

// KeyPair wraps an RSA private key and exposes a stable identifier derived
// from its modulus, the same approach the codebase used for key fingerprints.
type KeyPair struct {
	Private *rsa.PrivateKey
	id      string
}

// GenerateRSAKeyPair generates a new RSA key pair at the given bit size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &KeyPair{Private: priv, id: fingerprint(&priv.PublicKey)}, nil
}

// ID returns a unique identifier derived from the public modulus.
func (kp *KeyPair) ID() string {
	return kp.id
}

func fingerprint(pub *rsa.PublicKey) string {
	hash := sha256.Sum256(pub.N.Bytes())
	return hex.EncodeToString(hash[:8])
}

// LoadOrCreateKeyPair reads the PKCS#1 PEM private key at privatePath,
// generating and persisting a fresh HandshakeKeyBits-bit pair to both paths
// if that file is missing. publicPath is only written, never read.
func LoadOrCreateKeyPair(privatePath, publicPath string) (*KeyPair, error) {
	priv, errPriv := readPrivatePEM(privatePath)
	if errPriv == nil {
		return &KeyPair{Private: priv, id: fingerprint(&priv.PublicKey)}, nil
	}
	if !os.IsNotExist(errPriv) {
		return nil, fmt.Errorf("read private key: %w", errPriv)
	}

	kp, err := GenerateRSAKeyPair(HandshakeKeyBits)
	if err != nil {
		return nil, err
	}
	if err := kp.Persist(privatePath, publicPath); err != nil {
		return nil, err
	}
	return kp, nil
}

// Persist writes the keypair to disk in PKCS#1 PEM form.
func (kp *KeyPair) Persist(privatePath, publicPath string) error {
	if err := os.MkdirAll(filepath.Dir(privatePath), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	privBytes := x509.MarshalPKCS1PrivateKey(kp.Private)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: privBytes})
	if err := os.WriteFile(privatePath, privPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	pubBytes := x509.MarshalPKCS1PublicKey(&kp.Private.PublicKey)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: pubBytes})
	if err := os.WriteFile(publicPath, pubPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

func readPrivatePEM(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM in %s", path)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return priv, nil
}

// ReadPublicPEM loads a PKCS#1 RSA public key from disk, the shape a client
// would fetch out of band to verify handshake payloads.
func ReadPublicPEM(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("invalid PEM in %s", path)
	}
	pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}
