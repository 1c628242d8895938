package shipment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/vault"
)

// Service is the lifecycle controller. It owns the registry arena and
// mediates every mutation through the authorization guard and the
// per-operation state checks.
type Service struct {
	mu    sync.RWMutex
	arena *arena

	vault *vault.Vault
	sink  interfaces.EventSink
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates the lifecycle controller. The sink may be nil, in
// which case events are only logged.
func NewService(v *vault.Vault, sink interfaces.EventSink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		arena: newArena(),
		vault: v,
		sink:  sink,
		log:   log,
		now:   time.Now,
	}
}

// WithClock replaces the delivery clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a new shipment record in the Created state. The
// caller becomes the shipper. No encrypted state is produced.
func (s *Service) Create(ctx context.Context, id interfaces.ShipmentID, shipper, carrier, consignee interfaces.PartyID) error {
	if shipper.IsNull() || carrier.IsNull() || consignee.IsNull() {
		return fmt.Errorf("%w: null party identity", interfaces.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{
		ID:        id,
		Shipper:   shipper,
		Carrier:   carrier,
		Consignee: consignee,
		State:     StateCreated,
	}
	if err := s.arena.insert(rec); err != nil {
		return err
	}

	s.emit(ctx, newCreatedEvent(rec))
	s.log.Info("Shipment created",
		slog.String("shipment", id.String()),
		slog.String("shipper", shipper.String()))
	return nil
}

// IngestMeta submits the three encrypted meta fields. One-time: a
// record that already has meta rejects re-ingestion even by a different
// party. All local checks precede the vault call; a vault rejection
// leaves the record untouched, so no record ever has partial meta.
func (s *Service) IngestMeta(ctx context.Context, id interfaces.ShipmentID, caller interfaces.PartyID, in vault.MetaInputs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.arena.requireParty(id, caller)
	if err != nil {
		return err
	}
	if rec.HaveMeta() {
		return fmt.Errorf("%w: meta already ingested for %s", interfaces.ErrIllegalState, id)
	}
	if !in.Valid() {
		return fmt.Errorf("%w: empty ciphertext or proof", interfaces.ErrInvalidInput)
	}

	handles, err := s.vault.IngestMeta(ctx, id, caller, in, rec.Parties())
	if err != nil {
		return err
	}

	rec.Meta = handles
	rec.State = StateMetaIngested

	s.emit(ctx, newMetaEvent(rec, s.vault))
	s.log.Info("Shipment meta ingested",
		slog.String("shipment", id.String()),
		slog.String("caller", caller.String()))
	return nil
}

// MarkDelivered marks delivery at the current service clock reading and
// derives the SLA verdict. Requires ingested meta; one-time. The verdict
// handle becomes publicly decryptable, the timestamp stays restricted.
func (s *Service) MarkDelivered(ctx context.Context, id interfaces.ShipmentID, caller interfaces.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.arena.requireParty(id, caller)
	if err != nil {
		return err
	}
	if !rec.HaveMeta() {
		return fmt.Errorf("%w: no meta ingested for %s", interfaces.ErrIllegalState, id)
	}
	if rec.Delivered() {
		return fmt.Errorf("%w: %s already delivered", interfaces.ErrIllegalState, id)
	}

	deliveredAt := uint64(s.now().Unix())
	result, err := s.vault.RecordDelivery(ctx, id, rec.Meta.Deadline, deliveredAt, rec.Parties())
	if err != nil {
		return err
	}

	rec.Result = result
	rec.State = StateDelivered

	s.emit(ctx, newDeliveryEvent(rec, s.vault))
	s.log.Info("Shipment delivery marked",
		slog.String("shipment", id.String()),
		slog.String("caller", caller.String()))
	return nil
}

// GrantViewer extends view rights over the shipment's existing handles
// to an additional identity. Grants are additive and never revoked. A
// grant before ingestion is a legal no-op; grants remain possible
// indefinitely after delivery.
func (s *Service) GrantViewer(ctx context.Context, id interfaces.ShipmentID, caller, viewer interfaces.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.arena.requireParty(id, caller)
	if err != nil {
		return err
	}
	if viewer.IsNull() {
		return fmt.Errorf("%w: null viewer identity", interfaces.ErrInvalidInput)
	}

	if rec.HaveMeta() {
		if err := s.vault.GrantMetaView(ctx, rec.Meta, viewer); err != nil {
			return err
		}
	}
	if rec.Delivered() {
		if err := s.vault.GrantResultView(ctx, rec.Result, viewer); err != nil {
			return err
		}
	}

	s.emit(ctx, newViewerEvent(rec, viewer))
	s.log.Info("Viewer granted",
		slog.String("shipment", id.String()),
		slog.String("viewer", viewer.String()))
	return nil
}
