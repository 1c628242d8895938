package interfaces

import "context"

// ConfidentialCompute is the contract with the Confidential Computation
// Service, the sole cryptographic collaborator of the shipment core. The
// core never calls any arithmetic or decryption primitive beyond the
// methods listed here, and it never observes plaintext.
//
// All calls are synchronous and side-effect-bearing: an enclosing
// operation commits only after every service call it issued succeeded.
// A rejected call aborts the whole operation with no partial effect.
type ConfidentialCompute interface {
	// SubmitExternal verifies the attestation proof of an externally
	// produced ciphertext against the given binding and, on success,
	// stores the value and returns its handle. A bad proof fails with
	// an error wrapping ErrAttestationRejected.
	SubmitExternal(ctx context.Context, ciphertext []byte, proof []byte, binding ProofBinding) (CipherHandle, error)

	// EncryptTrusted encrypts a value originating from the execution
	// environment itself (a trusted-input cast, no proof required) and
	// returns its handle.
	EncryptTrusted(ctx context.Context, value uint64) (CipherHandle, error)

	// CompareLE computes the encrypted boolean a <= b and returns the
	// handle of the verdict. Both operands must have "use" rights in
	// the calling scope.
	CompareLE(ctx context.Context, a, b CipherHandle) (CipherHandle, error)

	// GrantUse permits further service operations on the handle within
	// the given shipment scope. Grants are append-only.
	GrantUse(ctx context.Context, h CipherHandle, scope ShipmentID) error

	// GrantView permits the identity to request decryption of the
	// handle through the out-of-band channel. Grants are append-only.
	GrantView(ctx context.Context, h CipherHandle, viewer PartyID) error

	// MarkPublic flags the handle as publicly decryptable. One-way.
	MarkPublic(ctx context.Context, h CipherHandle) error

	// TransportBytes returns the fixed-size opaque token of a handle
	// for event payloads and query results.
	TransportBytes(h CipherHandle) TransportToken

	// Decrypt is the out-of-band decryption channel. It succeeds only
	// for callers holding a view grant on the handle, or for any caller
	// if the handle is publicly decryptable.
	Decrypt(ctx context.Context, h CipherHandle, caller PartyID) (uint64, error)
}
