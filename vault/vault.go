// Package vault implements the ciphertext handle vault. It is the only
// component that talks to the Confidential Computation Service: it turns
// externally encrypted meta fields into internal handles, casts the
// delivery timestamp, derives the SLA verdict, and applies the grant
// fan-out policy. It never decrypts anything and stores no state of its
// own; resulting handles are returned to the lifecycle controller.
package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// MetaInputs are the three externally encrypted meta fields of a
// shipment with their attestation proofs.
type MetaInputs struct {
	Cargo    interfaces.EncryptedInput
	Route    interfaces.EncryptedInput
	Deadline interfaces.EncryptedInput
}

// Valid reports whether every field passes the local pre-check.
func (in MetaInputs) Valid() bool {
	return in.Cargo.Valid() && in.Route.Valid() && in.Deadline.Valid()
}

// MetaHandles are the internal handles of ingested meta.
type MetaHandles struct {
	Cargo    interfaces.CargoTagHandle
	Route    interfaces.RouteTagHandle
	Deadline interfaces.DeadlineHandle
}

// ResultHandles are the internal handles produced by marking delivery.
type ResultHandles struct {
	DeliveredAt interfaces.DeliveryTimeHandle
	Verdict     interfaces.VerdictHandle
}

// Vault wraps the Confidential Computation Service with the shipment
// grant policy.
type Vault struct {
	svc interfaces.ConfidentialCompute
	log *slog.Logger
}

// New creates a vault over the given service.
func New(svc interfaces.ConfidentialCompute, log *slog.Logger) *Vault {
	if log == nil {
		log = slog.Default()
	}
	return &Vault{svc: svc, log: log}
}

// IngestMeta submits the three encrypted fields for verification and
// applies the ingestion grant policy: the shipment scope gets use rights
// on every handle (so the later deadline comparison is permitted) and
// each registered party gets view rights on every handle.
//
// Any service rejection aborts with no handles returned; the caller must
// not commit partial meta.
func (v *Vault) IngestMeta(ctx context.Context, shipment interfaces.ShipmentID, submitter interfaces.PartyID, in MetaInputs, parties []interfaces.PartyID) (MetaHandles, error) {
	binding := interfaces.ProofBinding{Shipment: shipment, Submitter: submitter}

	cargo, err := v.svc.SubmitExternal(ctx, in.Cargo.Ciphertext, in.Cargo.Proof, binding)
	if err != nil {
		return MetaHandles{}, fmt.Errorf("cargo tag: %w", err)
	}
	route, err := v.svc.SubmitExternal(ctx, in.Route.Ciphertext, in.Route.Proof, binding)
	if err != nil {
		return MetaHandles{}, fmt.Errorf("route tag: %w", err)
	}
	deadline, err := v.svc.SubmitExternal(ctx, in.Deadline.Ciphertext, in.Deadline.Proof, binding)
	if err != nil {
		return MetaHandles{}, fmt.Errorf("deadline: %w", err)
	}

	for _, h := range []interfaces.CipherHandle{cargo, route, deadline} {
		if err := v.svc.GrantUse(ctx, h, shipment); err != nil {
			return MetaHandles{}, fmt.Errorf("use grant on %s: %w", h, err)
		}
		for _, party := range parties {
			if err := v.svc.GrantView(ctx, h, party); err != nil {
				return MetaHandles{}, fmt.Errorf("view grant on %s for %s: %w", h, party, err)
			}
		}
	}

	v.log.Debug("Meta ingested",
		slog.String("shipment", shipment.String()),
		slog.String("submitter", submitter.String()))

	return MetaHandles{
		Cargo:    interfaces.CargoTagHandle(cargo),
		Route:    interfaces.RouteTagHandle(route),
		Deadline: interfaces.DeadlineHandle(deadline),
	}, nil
}

// RecordDelivery casts the delivery timestamp (a trusted input from the
// service clock, not a user claim) and derives the SLA verdict
// deliveredAt <= deadline. Equality counts as on-time. The delivery
// grant policy applies: use rights for the shipment scope and view
// rights for every party on both handles, and the verdict handle alone
// is marked publicly decryptable.
func (v *Vault) RecordDelivery(ctx context.Context, shipment interfaces.ShipmentID, deadline interfaces.DeadlineHandle, deliveredAt uint64, parties []interfaces.PartyID) (ResultHandles, error) {
	at, err := v.svc.EncryptTrusted(ctx, deliveredAt)
	if err != nil {
		return ResultHandles{}, fmt.Errorf("delivery timestamp cast: %w", err)
	}

	// The comparison requires both operands usable in the shipment
	// scope; the deadline got its use grant at ingestion.
	if err := v.svc.GrantUse(ctx, at, shipment); err != nil {
		return ResultHandles{}, fmt.Errorf("use grant on delivery timestamp: %w", err)
	}

	verdict, err := v.svc.CompareLE(ctx, at, deadline.Handle())
	if err != nil {
		return ResultHandles{}, fmt.Errorf("sla comparison: %w", err)
	}

	if err := v.svc.GrantUse(ctx, verdict, shipment); err != nil {
		return ResultHandles{}, fmt.Errorf("use grant on verdict: %w", err)
	}
	for _, h := range []interfaces.CipherHandle{at, verdict} {
		for _, party := range parties {
			if err := v.svc.GrantView(ctx, h, party); err != nil {
				return ResultHandles{}, fmt.Errorf("view grant on %s for %s: %w", h, party, err)
			}
		}
	}

	// Only the verdict becomes publicly decryptable. The timestamp,
	// tags and deadline stay view-restricted.
	if err := v.svc.MarkPublic(ctx, verdict); err != nil {
		return ResultHandles{}, fmt.Errorf("marking verdict public: %w", err)
	}

	return ResultHandles{
		DeliveredAt: interfaces.DeliveryTimeHandle(at),
		Verdict:     interfaces.VerdictHandle(verdict),
	}, nil
}

// GrantMetaView extends view rights on the three meta handles to an
// additional viewer.
func (v *Vault) GrantMetaView(ctx context.Context, handles MetaHandles, viewer interfaces.PartyID) error {
	for _, h := range []interfaces.CipherHandle{handles.Cargo.Handle(), handles.Route.Handle(), handles.Deadline.Handle()} {
		if err := v.svc.GrantView(ctx, h, viewer); err != nil {
			return fmt.Errorf("view grant on %s for %s: %w", h, viewer, err)
		}
	}
	return nil
}

// GrantResultView extends view rights on the delivery handles to an
// additional viewer.
func (v *Vault) GrantResultView(ctx context.Context, handles ResultHandles, viewer interfaces.PartyID) error {
	for _, h := range []interfaces.CipherHandle{handles.DeliveredAt.Handle(), handles.Verdict.Handle()} {
		if err := v.svc.GrantView(ctx, h, viewer); err != nil {
			return fmt.Errorf("view grant on %s for %s: %w", h, viewer, err)
		}
	}
	return nil
}

// Token returns the transport token for a handle.
func (v *Vault) Token(h interfaces.CipherHandle) interfaces.TransportToken {
	return v.svc.TransportBytes(h)
}
