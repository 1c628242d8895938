package ccs

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// SubmissionDigest computes the digest an attestation proof must sign:
// keccak256(ciphertext || shipment). Binding the shipment ID into the
// digest prevents replaying a ciphertext against another record.
func SubmissionDigest(ciphertext []byte, shipment interfaces.ShipmentID) []byte {
	return crypto.Keccak256(ciphertext, shipment.Bytes())
}

// SignSubmission produces the attestation proof for an external
// ciphertext: a secp256k1 signature over the submission digest. Clients
// generate proofs with their party key; the engine recovers the signer
// and matches it against the submitting party.
func SignSubmission(key *ecdsa.PrivateKey, ciphertext []byte, shipment interfaces.ShipmentID) ([]byte, error) {
	sig, err := crypto.Sign(SubmissionDigest(ciphertext, shipment), key)
	if err != nil {
		return nil, fmt.Errorf("signing submission: %w", err)
	}
	return sig, nil
}

// RecoverSubmitter recovers the party that signed a submission proof.
func RecoverSubmitter(ciphertext []byte, shipment interfaces.ShipmentID, proof []byte) (interfaces.PartyID, error) {
	pub, err := crypto.SigToPub(SubmissionDigest(ciphertext, shipment), proof)
	if err != nil {
		return interfaces.PartyID{}, fmt.Errorf("recovering submitter: %w", err)
	}

	addr := crypto.PubkeyToAddress(*pub)
	return interfaces.NewPartyIDFromBytes(addr.Bytes())
}

// PartyIDForKey returns the party ID controlled by a private key.
func PartyIDForKey(key *ecdsa.PrivateKey) interfaces.PartyID {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	id, _ := interfaces.NewPartyIDFromBytes(addr.Bytes())
	return id
}
