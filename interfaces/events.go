package interfaces

import (
	"context"
	"time"
)

// EventKind names a lifecycle event.
type EventKind string

const (
	// EventShipmentCreated is emitted when a record is created.
	EventShipmentCreated EventKind = "shipment_created"

	// EventMetaIngested is emitted when encrypted meta is ingested.
	EventMetaIngested EventKind = "meta_ingested"

	// EventDeliveryMarked is emitted when delivery is marked and the
	// SLA verdict is computed.
	EventDeliveryMarked EventKind = "delivery_marked"

	// EventViewerGranted is emitted when view rights are extended.
	EventViewerGranted EventKind = "viewer_granted"
)

// Event is one committed lifecycle transition. Payload fields carry
// transport tokens and identities only, never plaintext values: the
// journal is safe to replicate to untrusted storage.
type Event struct {
	// ID is a unique event identifier (UUID).
	ID string `json:"id"`

	// Kind is the event kind.
	Kind EventKind `json:"kind"`

	// Shipment is the shipment the event belongs to.
	Shipment ShipmentID `json:"shipment"`

	// At is the commit wall-clock time.
	At time.Time `json:"at"`

	// Parties carries identities for creation and grant events.
	Parties map[string]string `json:"parties,omitempty"`

	// Handles carries transport tokens for ingestion and delivery
	// events, keyed by field name.
	Handles map[string]string `json:"handles,omitempty"`
}

// EventSink records committed events. Events are emitted strictly after
// commit and delivery is best-effort: a failing sink must not undo a
// committed operation.
type EventSink interface {
	// Append records one event.
	Append(ctx context.Context, ev Event) error

	// Name returns a short identifier for logs.
	Name() string

	// Available reports whether the sink is currently reachable.
	Available(ctx context.Context) bool
}
