package interfaces

import "errors"

// Sentinel errors forming the error taxonomy of the shipment core.
// Every failing operation wraps exactly one of these; callers classify
// with errors.Is. Checks are ordered so the first failing check aborts
// the whole operation before any state mutation or collaborator call
// commits.
var (
	// ErrNotFound indicates the shipment ID does not exist.
	ErrNotFound = errors.New("shipment not found")

	// ErrAlreadyExists indicates a create for an ID that is taken.
	ErrAlreadyExists = errors.New("shipment already exists")

	// ErrUnauthorized indicates the caller is not one of the shipment's
	// registered parties, or lacks a view grant on a handle.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidInput indicates a null identity, an empty ciphertext or
	// an empty proof.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIllegalState indicates an operation out of lifecycle order:
	// meta re-ingestion, delivery before meta, or re-delivery.
	ErrIllegalState = errors.New("illegal shipment state")

	// ErrAttestationRejected indicates the Confidential Computation
	// Service refused an attestation proof. Propagated unchanged.
	ErrAttestationRejected = errors.New("attestation rejected")
)
