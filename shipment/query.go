package shipment

import (
	"fmt"

	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/vault"
)

// Participants is the public projection of a shipment's party and
// progress data.
type Participants struct {
	Shipper   interfaces.PartyID
	Carrier   interfaces.PartyID
	Consignee interfaces.PartyID
	Delivered bool
	HaveMeta  bool
}

// GetParticipants returns the registered parties and progress flags.
// Readable by anyone; handles and values are not exposed here.
func (s *Service) GetParticipants(id interfaces.ShipmentID) (Participants, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.arena.get(id)
	if !ok {
		return Participants{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, id)
	}
	return Participants{
		Shipper:   rec.Shipper,
		Carrier:   rec.Carrier,
		Consignee: rec.Consignee,
		Delivered: rec.Delivered(),
		HaveMeta:  rec.HaveMeta(),
	}, nil
}

// GetEncryptedMetaHandles returns the three meta handles, or the null
// triple when meta has not been ingested. The handles are opaque;
// decryption requires a view grant and the service's out-of-band
// channel.
func (s *Service) GetEncryptedMetaHandles(id interfaces.ShipmentID) (vault.MetaHandles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.arena.get(id)
	if !ok {
		return vault.MetaHandles{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, id)
	}
	// Pre-ingestion the record holds the zero value, which is exactly
	// the null triple.
	return rec.Meta, nil
}

// GetResultHandles returns the delivery flag and the two result
// handles, or null handles pre-delivery.
func (s *Service) GetResultHandles(id interfaces.ShipmentID) (bool, vault.ResultHandles, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.arena.get(id)
	if !ok {
		return false, vault.ResultHandles{}, fmt.Errorf("%w: %s", interfaces.ErrNotFound, id)
	}
	return rec.Delivered(), rec.Result, nil
}
