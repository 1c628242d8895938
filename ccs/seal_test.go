package ccs

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSealKeyHex(t *testing.T) {
	key, err := ParseSealKeyHex(hex.EncodeToString(testSealKey))
	require.NoError(t, err)
	assert.Equal(t, testSealKey, key)

	// 0x prefix is accepted.
	key, err = ParseSealKeyHex("0x" + hex.EncodeToString(testSealKey))
	require.NoError(t, err)
	assert.Equal(t, testSealKey, key)

	_, err = ParseSealKeyHex("not hex")
	assert.Error(t, err)

	_, err = ParseSealKeyHex("abcd")
	assert.Error(t, err)
}

func TestSplitCombineSealKey(t *testing.T) {
	shares, err := SplitSealKey(testSealKey, 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	// Any threshold-sized subset reconstructs the key.
	key, err := CombineSealKey([]string{shares[4], shares[0], shares[2]})
	require.NoError(t, err)
	assert.Equal(t, testSealKey, key)

	// The reconstructed key drives a working engine.
	engine, err := NewSimulatedEngine(key, nil)
	require.NoError(t, err)
	_, err = engine.EncryptTrusted(context.Background(), 1)
	assert.NoError(t, err)
}

func TestCombineSealKeyErrors(t *testing.T) {
	_, err := CombineSealKey(nil)
	assert.Error(t, err)

	_, err = CombineSealKey([]string{"zz", "yy"})
	assert.Error(t, err)
}

func TestSplitSealKeyBadSize(t *testing.T) {
	_, err := SplitSealKey([]byte("short"), 5, 3)
	assert.Error(t, err)
}
