package shipment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/vault"
)

func newEvent(kind interfaces.EventKind, id interfaces.ShipmentID) interfaces.Event {
	return interfaces.Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Shipment: id,
		At:       time.Now().UTC(),
	}
}

func newCreatedEvent(rec *Record) interfaces.Event {
	ev := newEvent(interfaces.EventShipmentCreated, rec.ID)
	ev.Parties = map[string]string{
		"shipper":   rec.Shipper.String(),
		"carrier":   rec.Carrier.String(),
		"consignee": rec.Consignee.String(),
	}
	return ev
}

func newMetaEvent(rec *Record, v *vault.Vault) interfaces.Event {
	ev := newEvent(interfaces.EventMetaIngested, rec.ID)
	ev.Handles = map[string]string{
		"cargo_tag": v.Token(rec.Meta.Cargo.Handle()).String(),
		"route_tag": v.Token(rec.Meta.Route.Handle()).String(),
		"deadline":  v.Token(rec.Meta.Deadline.Handle()).String(),
	}
	return ev
}

func newDeliveryEvent(rec *Record, v *vault.Vault) interfaces.Event {
	ev := newEvent(interfaces.EventDeliveryMarked, rec.ID)
	ev.Handles = map[string]string{
		"delivered_at": v.Token(rec.Result.DeliveredAt.Handle()).String(),
		"sla_ok":       v.Token(rec.Result.Verdict.Handle()).String(),
	}
	return ev
}

func newViewerEvent(rec *Record, viewer interfaces.PartyID) interfaces.Event {
	ev := newEvent(interfaces.EventViewerGranted, rec.ID)
	ev.Parties = map[string]string{"viewer": viewer.String()}
	return ev
}

// emit records a committed event. Delivery is best-effort: a failing
// sink is logged and never rolls back the committed operation.
func (s *Service) emit(ctx context.Context, ev interfaces.Event) {
	if s.sink == nil {
		s.log.Debug("Event emitted", "kind", string(ev.Kind), "shipment", ev.Shipment.String())
		return
	}
	if err := s.sink.Append(ctx, ev); err != nil {
		s.log.Error("Failed to journal event",
			"err", err,
			"kind", string(ev.Kind),
			"shipment", ev.Shipment.String())
	}
}
