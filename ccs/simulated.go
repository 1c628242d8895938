package ccs

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"golang.org/x/crypto/nacl/secretbox"
)

// SimulatedEngine is an in-process Confidential Computation Service.
// Values are sealed with NaCl secretbox under a single sealing key;
// handles are keccak256 of the sealed box. Grant sets are append-only
// and never shrink, matching the non-revocable trust model.
type SimulatedEngine struct {
	sealKey [32]byte
	log     *slog.Logger

	mu     sync.RWMutex
	boxes  map[interfaces.CipherHandle][]byte
	use    map[interfaces.CipherHandle]map[interfaces.ShipmentID]struct{}
	view   map[interfaces.CipherHandle]map[interfaces.PartyID]struct{}
	public map[interfaces.CipherHandle]struct{}
}

// NewSimulatedEngine creates an engine with the provided sealing key.
// The key must be exactly 32 bytes; see CombineSealKey for assembling it
// from Shamir shares.
func NewSimulatedEngine(sealKey []byte, log *slog.Logger) (*SimulatedEngine, error) {
	if len(sealKey) != 32 {
		return nil, errors.New("sealing key must be exactly 32 bytes")
	}
	if log == nil {
		log = slog.Default()
	}

	e := &SimulatedEngine{
		log:    log,
		boxes:  make(map[interfaces.CipherHandle][]byte),
		use:    make(map[interfaces.CipherHandle]map[interfaces.ShipmentID]struct{}),
		view:   make(map[interfaces.CipherHandle]map[interfaces.PartyID]struct{}),
		public: make(map[interfaces.CipherHandle]struct{}),
	}
	copy(e.sealKey[:], sealKey)
	return e, nil
}

// seal encrypts a value into a fresh box: 24-byte nonce || secretbox.
func (e *SimulatedEngine) seal(value uint64) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)
	return secretbox.Seal(nonce[:], plain[:], &nonce, &e.sealKey), nil
}

// unseal opens a box produced by seal.
func (e *SimulatedEngine) unseal(box []byte) (uint64, error) {
	if len(box) <= 24 {
		return 0, errors.New("malformed box")
	}

	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &e.sealKey)
	if !ok || len(plain) != 8 {
		return 0, errors.New("box does not open under sealing key")
	}
	return binary.BigEndian.Uint64(plain), nil
}

func handleFor(box []byte) interfaces.CipherHandle {
	var h interfaces.CipherHandle
	copy(h[:], crypto.Keccak256(box))
	return h
}

// SealForSubmission produces an external ciphertext and matching proof
// for a value, bound to a shipment and signed by the submitting party's
// key. This is the client side of SubmitExternal; tests and shipmentctl
// use it to prepare meta fields.
func (e *SimulatedEngine) SealForSubmission(value uint64, shipment interfaces.ShipmentID, key *ecdsa.PrivateKey) (ciphertext, proof []byte, err error) {
	ciphertext, err = e.seal(value)
	if err != nil {
		return nil, nil, err
	}

	proof, err = SignSubmission(key, ciphertext, shipment)
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, proof, nil
}

// SubmitExternal verifies the proof binding and stores the ciphertext.
// Rejections wrap interfaces.ErrAttestationRejected.
func (e *SimulatedEngine) SubmitExternal(ctx context.Context, ciphertext, proof []byte, binding interfaces.ProofBinding) (interfaces.CipherHandle, error) {
	if len(ciphertext) == 0 || len(proof) == 0 {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: empty submission", interfaces.ErrAttestationRejected)
	}

	submitter, err := RecoverSubmitter(ciphertext, binding.Shipment, proof)
	if err != nil {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: %v", interfaces.ErrAttestationRejected, err)
	}
	if !submitter.Equal(binding.Submitter) {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: proof signed by %s, expected %s", interfaces.ErrAttestationRejected, submitter, binding.Submitter)
	}

	// The ciphertext itself must be well formed, not just well signed.
	if _, err := e.unseal(ciphertext); err != nil {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: %v", interfaces.ErrAttestationRejected, err)
	}

	h := handleFor(ciphertext)
	e.mu.Lock()
	e.boxes[h] = ciphertext
	e.mu.Unlock()

	e.log.Debug("Accepted external ciphertext",
		slog.String("handle", h.String()),
		slog.String("shipment", binding.Shipment.String()),
		slog.String("submitter", binding.Submitter.String()))
	return h, nil
}

// EncryptTrusted seals a host-originated value without a proof.
func (e *SimulatedEngine) EncryptTrusted(ctx context.Context, value uint64) (interfaces.CipherHandle, error) {
	box, err := e.seal(value)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}

	h := handleFor(box)
	e.mu.Lock()
	e.boxes[h] = box
	e.mu.Unlock()
	return h, nil
}

// CompareLE computes the encrypted verdict a <= b. Both operands must
// share a use scope; equality counts as true.
func (e *SimulatedEngine) CompareLE(ctx context.Context, a, b interfaces.CipherHandle) (interfaces.CipherHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	boxA, okA := e.boxes[a]
	boxB, okB := e.boxes[b]
	if !okA || !okB {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: unknown handle", interfaces.ErrInvalidInput)
	}
	if !e.shareUseScope(a, b) {
		return interfaces.CipherHandle{}, fmt.Errorf("%w: operands have no common use scope", interfaces.ErrUnauthorized)
	}

	va, err := e.unseal(boxA)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}
	vb, err := e.unseal(boxB)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}

	var verdict uint64
	if va <= vb {
		verdict = 1
	}

	box, err := e.seal(verdict)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}

	h := handleFor(box)
	e.boxes[h] = box
	return h, nil
}

// shareUseScope reports whether two handles were granted use in at least
// one common shipment scope. Callers hold e.mu.
func (e *SimulatedEngine) shareUseScope(a, b interfaces.CipherHandle) bool {
	for scope := range e.use[a] {
		if _, ok := e.use[b][scope]; ok {
			return true
		}
	}
	return false
}

// GrantUse permits service operations on the handle within a shipment
// scope. Append-only.
func (e *SimulatedEngine) GrantUse(ctx context.Context, h interfaces.CipherHandle, scope interfaces.ShipmentID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.boxes[h]; !ok {
		return fmt.Errorf("%w: unknown handle", interfaces.ErrInvalidInput)
	}
	if e.use[h] == nil {
		e.use[h] = make(map[interfaces.ShipmentID]struct{})
	}
	e.use[h][scope] = struct{}{}
	return nil
}

// GrantView permits the identity to decrypt the handle out-of-band.
// Append-only; granting twice is a no-op.
func (e *SimulatedEngine) GrantView(ctx context.Context, h interfaces.CipherHandle, viewer interfaces.PartyID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.boxes[h]; !ok {
		return fmt.Errorf("%w: unknown handle", interfaces.ErrInvalidInput)
	}
	if e.view[h] == nil {
		e.view[h] = make(map[interfaces.PartyID]struct{})
	}
	e.view[h][viewer] = struct{}{}
	return nil
}

// MarkPublic flags a handle as publicly decryptable. One-way.
func (e *SimulatedEngine) MarkPublic(ctx context.Context, h interfaces.CipherHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.boxes[h]; !ok {
		return fmt.Errorf("%w: unknown handle", interfaces.ErrInvalidInput)
	}
	e.public[h] = struct{}{}
	return nil
}

// TransportBytes returns the opaque transport token of a handle.
func (e *SimulatedEngine) TransportBytes(h interfaces.CipherHandle) interfaces.TransportToken {
	return interfaces.TransportToken(h)
}

// Decrypt is the out-of-band decryption channel. The caller must hold a
// view grant unless the handle is publicly decryptable.
func (e *SimulatedEngine) Decrypt(ctx context.Context, h interfaces.CipherHandle, caller interfaces.PartyID) (uint64, error) {
	e.mu.RLock()
	box, ok := e.boxes[h]
	_, isPublic := e.public[h]
	_, hasView := e.view[h][caller]
	e.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("%w: unknown handle", interfaces.ErrNotFound)
	}
	if !isPublic && !hasView {
		return 0, fmt.Errorf("%w: %s has no view grant on %s", interfaces.ErrUnauthorized, caller, h)
	}
	return e.unseal(box)
}

// HasViewGrant reports whether the identity holds a view grant on the
// handle. Diagnostic hook for tests and tooling.
func (e *SimulatedEngine) HasViewGrant(h interfaces.CipherHandle, viewer interfaces.PartyID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.view[h][viewer]
	return ok
}

// ViewGrantCount returns the number of identities granted view rights on
// the handle. Diagnostic hook for tests and tooling.
func (e *SimulatedEngine) ViewGrantCount(h interfaces.CipherHandle) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.view[h])
}

// IsPublic reports whether the handle was marked publicly decryptable.
func (e *SimulatedEngine) IsPublic(h interfaces.CipherHandle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.public[h]
	return ok
}
