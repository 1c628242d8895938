package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sealane/confidential-shipment-backend/api"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/metrics"
	"github.com/sealane/confidential-shipment-backend/shipment"
	"github.com/sealane/confidential-shipment-backend/vault"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// Handler processes HTTP requests for the shipment API. Mutating
// endpoints require the caller identity header; public endpoints are
// read-only projections.
type Handler struct {
	svc *shipment.Service
	log *slog.Logger
}

// NewHandler creates a handler over the lifecycle service.
func NewHandler(svc *shipment.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// shipmentID parses the {shipment_id} path segment.
func shipmentID(r *http.Request) (interfaces.ShipmentID, error) {
	return interfaces.NewShipmentIDFromHex(chi.URLParam(r, "shipment_id"))
}

// caller parses the identity header.
func caller(r *http.Request) (interfaces.PartyID, error) {
	raw := r.Header.Get(api.PartyHeader)
	if raw == "" {
		return interfaces.PartyID{}, errors.New("missing party header")
	}
	return interfaces.NewPartyIDFromHex(raw)
}

// writeError maps the error taxonomy onto HTTP statuses and counts the
// failure.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var status int
	var kind string

	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, interfaces.ErrAlreadyExists):
		status, kind = http.StatusConflict, "already_exists"
	case errors.Is(err, interfaces.ErrUnauthorized):
		status, kind = http.StatusForbidden, "unauthorized"
	case errors.Is(err, interfaces.ErrIllegalState):
		status, kind = http.StatusConflict, "illegal_state"
	case errors.Is(err, interfaces.ErrAttestationRejected):
		status, kind = http.StatusUnprocessableEntity, "attestation_rejected"
	case errors.Is(err, interfaces.ErrInvalidInput):
		status, kind = http.StatusBadRequest, "invalid_input"
	default:
		status, kind = http.StatusInternalServerError, "internal"
	}

	metrics.IncOpError(op, kind)
	http.Error(w, err.Error(), status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleCreate processes shipment registration.
//
// URL format: POST /api/shipments/{shipment_id}
// The header identity becomes the shipper.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	shipper, err := caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.CreateShipmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	carrier, err := interfaces.NewPartyIDFromHex(req.Carrier)
	if err != nil {
		http.Error(w, "Invalid carrier identity", http.StatusBadRequest)
		return
	}
	consignee, err := interfaces.NewPartyIDFromHex(req.Consignee)
	if err != nil {
		http.Error(w, "Invalid consignee identity", http.StatusBadRequest)
		return
	}

	if err := h.svc.Create(r.Context(), id, shipper, carrier, consignee); err != nil {
		h.log.Error("Create failed", "err", err, "shipment", id.String())
		h.writeError(w, "create", err)
		return
	}

	metrics.IncOp("create")
	h.writeJSON(w, map[string]string{"status": "created"})
}

func decodeField(f api.EncryptedField) (interfaces.EncryptedInput, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(f.Ciphertext)
	if err != nil {
		return interfaces.EncryptedInput{}, err
	}
	proof, err := base64.StdEncoding.DecodeString(f.Proof)
	if err != nil {
		return interfaces.EncryptedInput{}, err
	}
	return interfaces.EncryptedInput{Ciphertext: ciphertext, Proof: proof}, nil
}

// HandleIngestMeta processes encrypted meta ingestion.
//
// URL format: POST /api/shipments/{shipment_id}/meta
// Request body: three (ciphertext, proof) pairs, base64 encoded.
func (h *Handler) HandleIngestMeta(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	party, err := caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.IngestMetaRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cargo, err := decodeField(req.CargoTag)
	if err != nil {
		http.Error(w, "Invalid cargo tag encoding", http.StatusBadRequest)
		return
	}
	route, err := decodeField(req.RouteTag)
	if err != nil {
		http.Error(w, "Invalid route tag encoding", http.StatusBadRequest)
		return
	}
	deadline, err := decodeField(req.Deadline)
	if err != nil {
		http.Error(w, "Invalid deadline encoding", http.StatusBadRequest)
		return
	}

	in := vault.MetaInputs{Cargo: cargo, Route: route, Deadline: deadline}
	if err := h.svc.IngestMeta(r.Context(), id, party, in); err != nil {
		h.log.Error("Meta ingestion failed", "err", err, "shipment", id.String())
		h.writeError(w, "ingest_meta", err)
		return
	}

	metrics.IncOp("ingest_meta")
	h.writeJSON(w, map[string]string{"status": "meta ingested"})
}

// HandleMarkDelivered processes delivery marking. The delivery
// timestamp is taken from the service clock, not the request.
//
// URL format: POST /api/shipments/{shipment_id}/delivery
func (h *Handler) HandleMarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	party, err := caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkDelivered(r.Context(), id, party); err != nil {
		h.log.Error("Delivery marking failed", "err", err, "shipment", id.String())
		h.writeError(w, "mark_delivered", err)
		return
	}

	metrics.IncOp("mark_delivered")
	h.writeJSON(w, map[string]string{"status": "delivered"})
}

// HandleGrantViewer processes view-right extensions.
//
// URL format: POST /api/shipments/{shipment_id}/viewers
func (h *Handler) HandleGrantViewer(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	party, err := caller(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req api.GrantViewerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	viewer, err := interfaces.NewPartyIDFromHex(req.Viewer)
	if err != nil {
		http.Error(w, "Invalid viewer identity", http.StatusBadRequest)
		return
	}

	if err := h.svc.GrantViewer(r.Context(), id, party, viewer); err != nil {
		h.log.Error("Viewer grant failed", "err", err, "shipment", id.String())
		h.writeError(w, "grant_viewer", err)
		return
	}

	metrics.IncOp("grant_viewer")
	h.writeJSON(w, map[string]string{"status": "viewer granted"})
}

// HandleGetParticipants serves the public participants projection.
//
// URL format: GET /api/public/shipments/{shipment_id}/participants
func (h *Handler) HandleGetParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	parts, err := h.svc.GetParticipants(id)
	if err != nil {
		h.writeError(w, "get_participants", err)
		return
	}

	h.writeJSON(w, api.ParticipantsResponse{
		Shipper:   parts.Shipper.String(),
		Carrier:   parts.Carrier.String(),
		Consignee: parts.Consignee.String(),
		Delivered: parts.Delivered,
		HaveMeta:  parts.HaveMeta,
	})
}

// HandleGetMetaHandles serves the meta handle tokens.
//
// URL format: GET /api/public/shipments/{shipment_id}/meta-handles
func (h *Handler) HandleGetMetaHandles(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	handles, err := h.svc.GetEncryptedMetaHandles(id)
	if err != nil {
		h.writeError(w, "get_meta_handles", err)
		return
	}

	h.writeJSON(w, api.MetaHandlesResponse{
		CargoTag: handles.Cargo.String(),
		RouteTag: handles.Route.String(),
		Deadline: handles.Deadline.String(),
	})
}

// HandleGetResultHandles serves the delivery flag and result handle
// tokens.
//
// URL format: GET /api/public/shipments/{shipment_id}/result-handles
func (h *Handler) HandleGetResultHandles(w http.ResponseWriter, r *http.Request) {
	id, err := shipmentID(r)
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	delivered, handles, err := h.svc.GetResultHandles(id)
	if err != nil {
		h.writeError(w, "get_result_handles", err)
		return
	}

	h.writeJSON(w, api.ResultHandlesResponse{
		Delivered:   delivered,
		DeliveredAt: handles.DeliveredAt.String(),
		SLAOk:       handles.Verdict.String(),
	})
}
