package shipment

import (
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/vault"
)

// State is the explicit lifecycle state of a shipment record. It only
// ever advances: Created -> MetaIngested -> Delivered, each transition
// exactly once.
type State int

const (
	// StateCreated: record exists, no encrypted state yet.
	StateCreated State = iota

	// StateMetaIngested: encrypted meta handles are stored.
	StateMetaIngested

	// StateDelivered: delivery marked, SLA verdict derived. Terminal
	// for mutation; ACL grants remain possible indefinitely.
	StateDelivered
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateMetaIngested:
		return "meta_ingested"
	case StateDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Record is one shipment. Records never leave the arena; callers get
// copies or projections only.
type Record struct {
	ID        interfaces.ShipmentID
	Shipper   interfaces.PartyID
	Carrier   interfaces.PartyID
	Consignee interfaces.PartyID

	State State

	// Meta is non-null iff State >= StateMetaIngested.
	Meta vault.MetaHandles

	// Result is non-null iff State == StateDelivered.
	Result vault.ResultHandles
}

// Parties returns the three registered identities in a fixed order.
func (r *Record) Parties() []interfaces.PartyID {
	return []interfaces.PartyID{r.Shipper, r.Carrier, r.Consignee}
}

// IsParty reports whether the caller is one of the registered parties.
func (r *Record) IsParty(caller interfaces.PartyID) bool {
	return caller.Equal(r.Shipper) || caller.Equal(r.Carrier) || caller.Equal(r.Consignee)
}

// HaveMeta reports whether encrypted meta has been ingested.
func (r *Record) HaveMeta() bool {
	return r.State >= StateMetaIngested
}

// Delivered reports whether delivery has been marked.
func (r *Record) Delivered() bool {
	return r.State == StateDelivered
}
