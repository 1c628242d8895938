// Package interfaces defines the core types and contracts shared by the
// confidential shipment components. It provides the boundary between the
// lifecycle core, the ciphertext handle vault, the event journal and the
// Confidential Computation Service without implementation details.
//
// # Identity Types
//
// PartyID is a 20-byte identity reference in Ethereum address format.
// ShipmentID is the 32-byte key of a shipment record. Both have hex
// constructors with validation and a zero value that acts as null.
//
// # Ciphertext Handles
//
// CipherHandle is an opaque 32-byte reference to an encrypted value held
// by the Confidential Computation Service. The core never sees plaintext;
// all it may do with a handle is store it, forward it, or hand it to the
// service for a permitted operation. Each ciphertext kind gets its own
// named handle type (CargoTagHandle, RouteTagHandle, DeadlineHandle,
// DeliveryTimeHandle, VerdictHandle) so a cargo tag can never be passed
// where a deadline is expected.
//
// # Error Taxonomy
//
// All component errors wrap one of the sentinel errors declared in this
// package (ErrNotFound, ErrAlreadyExists, ErrUnauthorized,
// ErrInvalidInput, ErrIllegalState, ErrAttestationRejected) so callers
// can classify failures with errors.Is.
package interfaces
