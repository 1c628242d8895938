// Package api defines the wire types of the shipment HTTP API shared by
// the server handlers and the client.
package api

// PartyHeader carries the caller identity as a 40-character hex party
// ID. Every party-restricted operation requires it.
const PartyHeader = "X-Sealane-Party"

// EncryptedField is one externally encrypted value with its attestation
// proof, both base64 encoded.
type EncryptedField struct {
	Ciphertext string `json:"ciphertext"`
	Proof      string `json:"proof"`
}

// CreateShipmentRequest registers a new shipment. The caller (header
// identity) becomes the shipper.
type CreateShipmentRequest struct {
	Carrier   string `json:"carrier"`
	Consignee string `json:"consignee"`
}

// IngestMetaRequest submits the three encrypted meta fields.
type IngestMetaRequest struct {
	CargoTag EncryptedField `json:"cargo_tag"`
	RouteTag EncryptedField `json:"route_tag"`
	Deadline EncryptedField `json:"deadline"`
}

// GrantViewerRequest extends view rights to an additional identity.
type GrantViewerRequest struct {
	Viewer string `json:"viewer"`
}

// ParticipantsResponse is the public projection of a shipment's parties
// and progress.
type ParticipantsResponse struct {
	Shipper   string `json:"shipper"`
	Carrier   string `json:"carrier"`
	Consignee string `json:"consignee"`
	Delivered bool   `json:"delivered"`
	HaveMeta  bool   `json:"have_meta"`
}

// MetaHandlesResponse carries the transport tokens of the meta handles,
// or all-zero tokens before ingestion.
type MetaHandlesResponse struct {
	CargoTag string `json:"cargo_tag"`
	RouteTag string `json:"route_tag"`
	Deadline string `json:"deadline"`
}

// ResultHandlesResponse carries the delivery flag and the transport
// tokens of the result handles, or all-zero tokens before delivery.
type ResultHandlesResponse struct {
	Delivered   bool   `json:"delivered"`
	DeliveredAt string `json:"delivered_at"`
	SLAOk       string `json:"sla_ok"`
}
