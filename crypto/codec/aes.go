package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// AESKeySize is the key length for AES-256-GCM.
const AESKeySize = 32

// AESNonceSize is the GCM nonce length used by this protocol.
const AESNonceSize = 12

// GenerateAESKey returns a fresh 32-byte key from the system CSPRNG.
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate aes key: %w", err)
	}
	return key, nil
}

// GenerateNonce returns a fresh 12-byte GCM nonce from the system CSPRNG.
// Callers must invoke this once per encrypted message: reusing a nonce
// under a fixed key is the confidentiality bug flagged in the protocol's
// design notes, and this codec never does it.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, AESNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, AESNonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}

// EncryptAESGCM seals plaintext under key/nonce, returning ciphertext with
// the authentication tag appended (the standard cipher.AEAD.Seal shape).
func EncryptAESGCM(key, nonce, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// DecryptAESGCM opens ciphertext produced by EncryptAESGCM.
func DecryptAESGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm open: %w", err)
	}
	return plaintext, nil
}
