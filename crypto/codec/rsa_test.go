package codec

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptWithPrivateKeyRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	plaintext := []byte("OK;aes|x=x|K 1-1 nonce|x=x|N 1-1 session_id|x=x|SID")
	ciphertext, err := EncryptWithPrivateKey(priv, plaintext)
	require.NoError(t, err)
	assert.Len(t, ciphertext, priv.Size())

	decrypted, err := DecryptWithPublicKey(&priv.PublicKey, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptWithPrivateKeyRejectsOversizedPlaintext(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	_, err = EncryptWithPrivateKey(priv, make([]byte, 200))
	assert.Error(t, err)
}

func TestDecryptWithPublicKeyRejectsBadLength(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = DecryptWithPublicKey(&priv.PublicKey, []byte{0x01, 0x02})
	assert.Error(t, err)
}
