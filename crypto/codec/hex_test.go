package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainHexRoundTrip(t *testing.T) {
	cases := []string{
		"hello",
		"initializeencryption;",
		"SID-1234 1-1 session_id|x=x|abc",
		"",
	}
	for _, s := range cases {
		encoded := EncodePlainHex(s)
		decoded, err := DecodePlainHex(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}
}

func TestPlainHexEncodingIsUppercaseUnpadded(t *testing.T) {
	assert.Equal(t, "48454C4C4F", EncodePlainHex("HELLO"))
}

func TestPlainHexDecodeStopsAtNulPair(t *testing.T) {
	encoded := EncodePlainHex("ok") + "00" + EncodePlainHex("trailing-garbage")
	decoded, err := DecodePlainHex(encoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded)
}

func TestBinaryHexRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x00, 0x01, 0xFF, 0x7E},
		{},
		{0x10, 0x20, 0x30},
	}
	for _, b := range cases {
		encoded := EncodeBinaryHex(b)
		decoded, err := DecodeBinaryHex(encoded)
		require.NoError(t, err)
		assert.Equal(t, b, decoded)
	}
}

func TestBinaryHexIsThreeCharsPerByte(t *testing.T) {
	assert.Equal(t, "000002055", EncodeBinaryHex([]byte{0x00, 0x02, 0x55}))
	assert.Len(t, EncodeBinaryHex([]byte{0x00, 0x02, 0x55}), 9)
}

func TestBinaryHexDecodeRejectsBadLength(t *testing.T) {
	_, err := DecodeBinaryHex("0001")
	assert.Error(t, err)
}
