package codec

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// EncryptWithPrivateKey performs the handshake's unconventional direction:
// RSA PKCS#1 v1.5 encryption-type padding applied to plaintext and raw
// modular exponentiation with the private exponent, rather than the public
// one. Standard PKCS#1 v1.5 forbids this — it degrades to a signature-like
// operation with public recovery — but the wire protocol requires it, so
// this codec reproduces it exactly rather than silently "fixing" it to use
// rsa.EncryptPKCS1v15, which only accepts a public key.
func EncryptWithPrivateKey(priv *rsa.PrivateKey, plaintext []byte) ([]byte, error) {
	k := priv.Size()
	if len(plaintext) > k-11 {
		return nil, fmt.Errorf("plaintext too long for %d-byte modulus", k)
	}

	em := make([]byte, k)
	em[0] = 0x00
	em[1] = 0x02
	ps := em[2 : k-len(plaintext)-1]
	if err := nonZeroRandomBytes(ps); err != nil {
		return nil, fmt.Errorf("pad: %w", err)
	}
	em[k-len(plaintext)-1] = 0x00
	copy(em[k-len(plaintext):], plaintext)

	m := new(big.Int).SetBytes(em)
	c := new(big.Int).Exp(m, priv.D, priv.N)
	out := make([]byte, k)
	c.FillBytes(out)
	return out, nil
}

// DecryptWithPublicKey is the client-side counterpart: raw modular
// exponentiation with the public exponent followed by EME-PKCS1-v1_5
// unpadding (encryption-type, leading 0x00 0x02).
func DecryptWithPublicKey(pub *rsa.PublicKey, ciphertext []byte) ([]byte, error) {
	n := pub.N
	k := (n.BitLen() + 7) / 8
	if len(ciphertext) != k {
		return nil, fmt.Errorf("ciphertext length %d does not match modulus size %d", len(ciphertext), k)
	}

	c := new(big.Int).SetBytes(ciphertext)
	e := big.NewInt(int64(pub.E))
	m := new(big.Int).Exp(c, e, n)

	em := make([]byte, k)
	m.FillBytes(em)

	if em[0] != 0x00 || em[1] != 0x02 {
		return nil, fmt.Errorf("invalid pkcs1 padding header")
	}
	idx := -1
	for i := 2; i < len(em); i++ {
		if em[i] == 0x00 {
			idx = i
			break
		}
	}
	if idx < 0 || idx < 10 {
		return nil, fmt.Errorf("invalid pkcs1 padding: no separator")
	}
	return em[idx+1:], nil
}

func nonZeroRandomBytes(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return err
	}
	for i, v := range b {
		for v == 0 {
			if _, err := rand.Read(b[i : i+1]); err != nil {
				return err
			}
			v = b[i]
		}
	}
	return nil
}
