package shipment

import (
	"fmt"

	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// arena is the dense registry of shipment records. Records are owned
// exclusively by the arena; no mutable reference escapes the service.
// Locking is the caller's concern (see Service).
type arena struct {
	records map[interfaces.ShipmentID]*Record
}

func newArena() *arena {
	return &arena{records: make(map[interfaces.ShipmentID]*Record)}
}

// get returns the record for an ID, distinguishing "never created".
func (a *arena) get(id interfaces.ShipmentID) (*Record, bool) {
	rec, ok := a.records[id]
	return rec, ok
}

// insert adds a record, enforcing ID uniqueness.
func (a *arena) insert(rec *Record) error {
	if _, ok := a.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", interfaces.ErrAlreadyExists, rec.ID)
	}
	a.records[rec.ID] = rec
	return nil
}

// requireParty is the authorization guard: it resolves the record and
// verifies the caller is one of its three registered parties. Every
// party-restricted operation runs this as its first check.
func (a *arena) requireParty(id interfaces.ShipmentID, caller interfaces.PartyID) (*Record, error) {
	rec, ok := a.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, id)
	}
	if !rec.IsParty(caller) {
		return nil, fmt.Errorf("%w: %s is not a party of %s", interfaces.ErrUnauthorized, caller, id)
	}
	return rec, nil
}
