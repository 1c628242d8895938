package interfaces

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartyIDParsing(t *testing.T) {
	hex40 := strings.Repeat("ab", 20)

	id, err := NewPartyIDFromHex(hex40)
	require.NoError(t, err)
	assert.Equal(t, hex40, id.String())
	assert.False(t, id.IsNull())

	// 0x prefix is accepted.
	prefixed, err := NewPartyIDFromHex("0x" + hex40)
	require.NoError(t, err)
	assert.True(t, id.Equal(prefixed))

	_, err = NewPartyIDFromHex("abcd")
	assert.Error(t, err)
	_, err = NewPartyIDFromHex(strings.Repeat("zz", 20))
	assert.Error(t, err)
	_, err = NewPartyIDFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)

	assert.True(t, NullParty.IsNull())
}

func TestShipmentIDParsing(t *testing.T) {
	hex64 := strings.Repeat("cd", 32)

	id, err := NewShipmentIDFromHex(hex64)
	require.NoError(t, err)
	assert.Equal(t, hex64, id.String())

	roundtrip, err := NewShipmentIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.True(t, id.Equal(roundtrip))

	_, err = NewShipmentIDFromHex(hex64 + "00")
	assert.Error(t, err)
}

func TestCipherHandleNull(t *testing.T) {
	var h CipherHandle
	assert.True(t, h.IsNull())

	parsed, err := NewCipherHandleFromHex(strings.Repeat("ef", 32))
	require.NoError(t, err)
	assert.False(t, parsed.IsNull())

	// The typed wrappers carry null-ness through.
	assert.True(t, CargoTagHandle(h).IsNull())
	assert.False(t, VerdictHandle(parsed).IsNull())
	assert.Equal(t, parsed, DeadlineHandle(parsed).Handle())
}

func TestEncryptedInputValid(t *testing.T) {
	assert.False(t, EncryptedInput{}.Valid())
	assert.False(t, EncryptedInput{Ciphertext: []byte("ct")}.Valid())
	assert.False(t, EncryptedInput{Proof: []byte("pf")}.Valid())
	assert.True(t, EncryptedInput{Ciphertext: []byte("ct"), Proof: []byte("pf")}.Valid())
}
