package ccs

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/shamir"
)

// SealKeySize is the size of the engine sealing key in bytes.
const SealKeySize = 32

// ParseSealKeyHex decodes a hex-encoded 32-byte sealing key.
func ParseSealKeyHex(source string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimPrefix(source, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid sealing key hex: %w", err)
	}
	if len(key) != SealKeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", SealKeySize, len(key))
	}
	return key, nil
}

// SplitSealKey splits a sealing key into n Shamir shares of which
// threshold are required to reconstruct it. Shares are hex encoded for
// distribution to operators.
func SplitSealKey(key []byte, n, threshold int) ([]string, error) {
	if len(key) != SealKeySize {
		return nil, fmt.Errorf("sealing key must be %d bytes, got %d", SealKeySize, len(key))
	}

	shares, err := shamir.Split(key, n, threshold)
	if err != nil {
		return nil, fmt.Errorf("splitting sealing key: %w", err)
	}

	encoded := make([]string, len(shares))
	for i, share := range shares {
		encoded[i] = hex.EncodeToString(share)
	}
	return encoded, nil
}

// CombineSealKey reconstructs the sealing key from hex-encoded Shamir
// shares. At least the threshold number of distinct shares is required.
func CombineSealKey(shares []string) ([]byte, error) {
	if len(shares) == 0 {
		return nil, errors.New("no sealing key shares provided")
	}

	raw := make([][]byte, len(shares))
	for i, share := range shares {
		decoded, err := hex.DecodeString(strings.TrimSpace(share))
		if err != nil {
			return nil, fmt.Errorf("invalid share %d: %w", i, err)
		}
		raw[i] = decoded
	}

	key, err := shamir.Combine(raw)
	if err != nil {
		return nil, fmt.Errorf("combining sealing key shares: %w", err)
	}
	if len(key) != SealKeySize {
		return nil, fmt.Errorf("combined key is %d bytes, expected %d", len(key), SealKeySize)
	}
	return key, nil
}
