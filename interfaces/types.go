package interfaces

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// PartyID identifies a participant (shipper, carrier, consignee, or an
// additional viewer). It uses the 20-byte Ethereum address format so
// identities interoperate with secp256k1 proof recovery.
type PartyID [20]byte

// NullParty is the zero identity. It is never a legal participant.
var NullParty PartyID

// NewPartyIDFromBytes creates a party ID from a 20-byte slice.
func NewPartyIDFromBytes(source []byte) (PartyID, error) {
	if len(source) != 20 {
		return PartyID{}, errors.New("invalid party ID length: must be 20 bytes")
	}

	var id PartyID
	copy(id[:], source)
	return id, nil
}

// NewPartyIDFromHex creates a party ID from a 40-character hex string,
// with or without 0x prefix.
func NewPartyIDFromHex(source string) (PartyID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 40 {
		return PartyID{}, errors.New("invalid party ID length: hex string must be 40 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return PartyID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewPartyIDFromBytes(raw)
}

// String returns the hex representation of the party ID.
func (id PartyID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte identity.
func (id PartyID) Bytes() []byte {
	return id[:]
}

// IsNull reports whether the identity is the null identity.
func (id PartyID) IsNull() bool {
	return id == NullParty
}

// Equal compares two party IDs for equality.
func (id PartyID) Equal(other PartyID) bool {
	return id == other
}

// ShipmentID is the unique 32-byte key of a shipment record, immutable
// once the record is created.
type ShipmentID [32]byte

// NewShipmentIDFromBytes creates a shipment ID from a 32-byte slice.
func NewShipmentIDFromBytes(source []byte) (ShipmentID, error) {
	if len(source) != 32 {
		return ShipmentID{}, errors.New("invalid shipment ID length: must be 32 bytes")
	}

	var id ShipmentID
	copy(id[:], source)
	return id, nil
}

// NewShipmentIDFromHex creates a shipment ID from a 64-character hex
// string, with or without 0x prefix.
func NewShipmentIDFromHex(source string) (ShipmentID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ShipmentID{}, errors.New("invalid shipment ID length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return ShipmentID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewShipmentIDFromBytes(raw)
}

// String returns the hex representation of the shipment ID.
func (id ShipmentID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte key.
func (id ShipmentID) Bytes() []byte {
	return id[:]
}

// Equal compares two shipment IDs for equality.
func (id ShipmentID) Equal(other ShipmentID) bool {
	return id == other
}

// CipherHandle is an opaque 32-byte reference to an encrypted value held
// by the Confidential Computation Service. The zero value is the null
// handle, meaning "no value".
type CipherHandle [32]byte

// NewCipherHandleFromBytes creates a handle from a 32-byte slice.
func NewCipherHandleFromBytes(source []byte) (CipherHandle, error) {
	if len(source) != 32 {
		return CipherHandle{}, errors.New("invalid handle length: must be 32 bytes")
	}

	var h CipherHandle
	copy(h[:], source)
	return h, nil
}

// NewCipherHandleFromHex creates a handle from a 64-character hex string.
func NewCipherHandleFromHex(source string) (CipherHandle, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return CipherHandle{}, errors.New("invalid handle length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return CipherHandle{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewCipherHandleFromBytes(raw)
}

// String returns the hex representation of the handle.
func (h CipherHandle) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte handle.
func (h CipherHandle) Bytes() []byte {
	return h[:]
}

// IsNull reports whether the handle is the null handle.
func (h CipherHandle) IsNull() bool {
	return h == CipherHandle{}
}

// Equal compares two handles for equality.
func (h CipherHandle) Equal(other CipherHandle) bool {
	return bytes.Equal(h[:], other[:])
}

// Per-kind handle types. They share the CipherHandle representation but
// are distinct to the compiler, so a cargo tag handle cannot be stored or
// forwarded where a deadline handle is expected.
type (
	// CargoTagHandle references the encrypted cargo identity tag.
	// Equality/bitwise domain only, never arithmetic.
	CargoTagHandle CipherHandle

	// RouteTagHandle references the encrypted route tag.
	// Equality/bitwise domain only, never arithmetic.
	RouteTagHandle CipherHandle

	// DeadlineHandle references the encrypted delivery deadline, a
	// comparable encrypted scalar.
	DeadlineHandle CipherHandle

	// DeliveryTimeHandle references the encrypted delivery timestamp.
	DeliveryTimeHandle CipherHandle

	// VerdictHandle references the encrypted SLA verdict (boolean
	// domain). It is the only handle kind that may be marked publicly
	// decryptable.
	VerdictHandle CipherHandle
)

// Handle returns the untyped handle for a Confidential Computation
// Service call.
func (h CargoTagHandle) Handle() CipherHandle { return CipherHandle(h) }

// IsNull reports whether the handle is the null handle.
func (h CargoTagHandle) IsNull() bool { return CipherHandle(h).IsNull() }

// String returns the hex representation of the handle.
func (h CargoTagHandle) String() string { return CipherHandle(h).String() }

// Handle returns the untyped handle for a Confidential Computation
// Service call.
func (h RouteTagHandle) Handle() CipherHandle { return CipherHandle(h) }

// IsNull reports whether the handle is the null handle.
func (h RouteTagHandle) IsNull() bool { return CipherHandle(h).IsNull() }

// String returns the hex representation of the handle.
func (h RouteTagHandle) String() string { return CipherHandle(h).String() }

// Handle returns the untyped handle for a Confidential Computation
// Service call.
func (h DeadlineHandle) Handle() CipherHandle { return CipherHandle(h) }

// IsNull reports whether the handle is the null handle.
func (h DeadlineHandle) IsNull() bool { return CipherHandle(h).IsNull() }

// String returns the hex representation of the handle.
func (h DeadlineHandle) String() string { return CipherHandle(h).String() }

// Handle returns the untyped handle for a Confidential Computation
// Service call.
func (h DeliveryTimeHandle) Handle() CipherHandle { return CipherHandle(h) }

// IsNull reports whether the handle is the null handle.
func (h DeliveryTimeHandle) IsNull() bool { return CipherHandle(h).IsNull() }

// String returns the hex representation of the handle.
func (h DeliveryTimeHandle) String() string { return CipherHandle(h).String() }

// Handle returns the untyped handle for a Confidential Computation
// Service call.
func (h VerdictHandle) Handle() CipherHandle { return CipherHandle(h) }

// IsNull reports whether the handle is the null handle.
func (h VerdictHandle) IsNull() bool { return CipherHandle(h).IsNull() }

// String returns the hex representation of the handle.
func (h VerdictHandle) String() string { return CipherHandle(h).String() }

// TransportToken is the fixed-size opaque form of a handle used in event
// payloads and query results. Possessing a token grants nothing;
// decryption is authorized separately by view grants.
type TransportToken [32]byte

// String returns the hex representation of the token.
func (t TransportToken) String() string {
	return hex.EncodeToString(t[:])
}

// EncryptedInput is one externally encrypted field together with the
// attestation proof that binds it to the submitting context.
type EncryptedInput struct {
	// Ciphertext is the raw externally produced ciphertext.
	Ciphertext []byte

	// Proof is the attestation proof covering the ciphertext.
	Proof []byte
}

// Valid reports whether the input passes the cheap local pre-check:
// both the ciphertext and the proof must be non-empty. This never
// inspects the ciphertext.
func (in EncryptedInput) Valid() bool {
	return len(in.Ciphertext) > 0 && len(in.Proof) > 0
}

// ProofBinding names the context an external ciphertext must be bound
// to: the shipment it is submitted for and the party submitting it.
type ProofBinding struct {
	Shipment  ShipmentID
	Submitter PartyID
}
