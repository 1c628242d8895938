package httpserver

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/sealane/confidential-shipment-backend/api"
	"github.com/sealane/confidential-shipment-backend/ccs"
	"github.com/sealane/confidential-shipment-backend/common"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/shipment"
	"github.com/sealane/confidential-shipment-backend/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSealKey = make([]byte, ccs.SealKeySize)

func init() {
	for i := range testSealKey {
		testSealKey[i] = 0x11
	}
}

type testBackend struct {
	router http.Handler
	engine *ccs.SimulatedEngine
	svc    *shipment.Service

	shipperKey *ecdsa.PrivateKey
	shipper    interfaces.PartyID
	carrier    interfaces.PartyID
	consignee  interfaces.PartyID
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	log := common.SetupLogger(&common.LoggingOpts{Debug: true})

	engine, err := ccs.NewSimulatedEngine(testSealKey, log)
	require.NoError(t, err)

	svc := shipment.NewService(vault.New(engine, log), nil, log)
	handler := NewHandler(svc, log)

	mux := chi.NewRouter()
	mux.Post("/api/shipments/{shipment_id}", handler.HandleCreate)
	mux.Post("/api/shipments/{shipment_id}/meta", handler.HandleIngestMeta)
	mux.Post("/api/shipments/{shipment_id}/delivery", handler.HandleMarkDelivered)
	mux.Post("/api/shipments/{shipment_id}/viewers", handler.HandleGrantViewer)
	mux.Get("/api/public/shipments/{shipment_id}/participants", handler.HandleGetParticipants)
	mux.Get("/api/public/shipments/{shipment_id}/meta-handles", handler.HandleGetMetaHandles)
	mux.Get("/api/public/shipments/{shipment_id}/result-handles", handler.HandleGetResultHandles)

	b := &testBackend{router: mux, engine: engine, svc: svc}

	b.shipperKey, err = ethcrypto.GenerateKey()
	require.NoError(t, err)
	b.shipper = ccs.PartyIDForKey(b.shipperKey)

	carrierKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	b.carrier = ccs.PartyIDForKey(carrierKey)

	consigneeKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	b.consignee = ccs.PartyIDForKey(consigneeKey)
	return b
}

func (b *testBackend) request(t *testing.T, method, path, party string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if party != "" {
		req.Header.Set(api.PartyHeader, party)
	}

	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	return rec
}

const testShipmentHex = "0101010101010101010101010101010101010101010101010101010101010101"

func (b *testBackend) create(t *testing.T) {
	t.Helper()
	rec := b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex, b.shipper.String(), api.CreateShipmentRequest{
		Carrier:   b.carrier.String(),
		Consignee: b.consignee.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// metaRequest prepares a well-formed ingestion body signed by the key.
func (b *testBackend) metaRequest(t *testing.T, key *ecdsa.PrivateKey, cargo, route, deadline uint64) api.IngestMetaRequest {
	t.Helper()
	id, err := interfaces.NewShipmentIDFromHex(testShipmentHex)
	require.NoError(t, err)

	seal := func(value uint64) api.EncryptedField {
		ciphertext, proof, err := b.engine.SealForSubmission(value, id, key)
		require.NoError(t, err)
		return api.EncryptedField{
			Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
			Proof:      base64.StdEncoding.EncodeToString(proof),
		}
	}

	return api.IngestMetaRequest{
		CargoTag: seal(cargo),
		RouteTag: seal(route),
		Deadline: seal(deadline),
	}
}

func TestHandleCreate(t *testing.T) {
	b := newTestBackend(t)
	b.create(t)

	// Duplicate ID conflicts.
	rec := b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex, b.shipper.String(), api.CreateShipmentRequest{
		Carrier:   b.carrier.String(),
		Consignee: b.consignee.String(),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing identity header.
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex, "", api.CreateShipmentRequest{
		Carrier:   b.carrier.String(),
		Consignee: b.consignee.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed shipment ID.
	rec = b.request(t, http.MethodPost, "/api/shipments/zz", b.shipper.String(), api.CreateShipmentRequest{
		Carrier:   b.carrier.String(),
		Consignee: b.consignee.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed carrier identity.
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex, b.shipper.String(), api.CreateShipmentRequest{
		Carrier:   "tooshort",
		Consignee: b.consignee.String(),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetParticipants(t *testing.T) {
	b := newTestBackend(t)
	b.create(t)

	rec := b.request(t, http.MethodGet, "/api/public/shipments/"+testShipmentHex+"/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ParticipantsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, b.shipper.String(), resp.Shipper)
	assert.Equal(t, b.carrier.String(), resp.Carrier)
	assert.Equal(t, b.consignee.String(), resp.Consignee)
	assert.False(t, resp.HaveMeta)
	assert.False(t, resp.Delivered)

	// Unknown shipment.
	unknown := "0202020202020202020202020202020202020202020202020202020202020202"
	rec = b.request(t, http.MethodGet, "/api/public/shipments/"+unknown+"/participants", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleIngestMeta(t *testing.T) {
	b := newTestBackend(t)
	b.create(t)

	strangerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	// A non-party cannot ingest.
	body := b.metaRequest(t, strangerKey, 10, 20, 30)
	rec := b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", ccs.PartyIDForKey(strangerKey).String(), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A party submitting someone else's proofs is rejected.
	body = b.metaRequest(t, strangerKey, 10, 20, 30)
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// A proper submission goes through.
	body = b.metaRequest(t, b.shipperKey, 10, 20, 30)
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	handles := b.request(t, http.MethodGet, "/api/public/shipments/"+testShipmentHex+"/meta-handles", "", nil)
	require.Equal(t, http.StatusOK, handles.Code)
	var resp api.MetaHandlesResponse
	require.NoError(t, json.Unmarshal(handles.Body.Bytes(), &resp))
	assert.NotEqual(t, interfaces.CipherHandle{}.String(), resp.CargoTag)

	// Re-ingestion conflicts.
	body = b.metaRequest(t, b.shipperKey, 11, 21, 31)
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Garbled base64 never reaches the service.
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), api.IngestMetaRequest{
		CargoTag: api.EncryptedField{Ciphertext: "%%%", Proof: "%%%"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMarkDelivered(t *testing.T) {
	b := newTestBackend(t)
	b.create(t)
	b.svc.WithClock(func() time.Time { return time.Unix(25, 0) })

	// No meta yet.
	rec := b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/delivery", b.carrier.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body := b.metaRequest(t, b.shipperKey, 10, 20, 30)
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/delivery", b.carrier.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// One-time.
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/delivery", b.consignee.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	results := b.request(t, http.MethodGet, "/api/public/shipments/"+testShipmentHex+"/result-handles", "", nil)
	require.Equal(t, http.StatusOK, results.Code)
	var resp api.ResultHandlesResponse
	require.NoError(t, json.Unmarshal(results.Body.Bytes(), &resp))
	assert.True(t, resp.Delivered)

	// Delivered at 25 against deadline 30: the public verdict reads 1.
	verdict, err := interfaces.NewCipherHandleFromHex(resp.SLAOk)
	require.NoError(t, err)
	value, err := b.engine.Decrypt(context.Background(), verdict, interfaces.NullParty)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), value)
}

func TestHandleGrantViewer(t *testing.T) {
	b := newTestBackend(t)
	b.create(t)

	body := b.metaRequest(t, b.shipperKey, 10, 20, 30)
	rec := b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/meta", b.shipper.String(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	viewerKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	viewer := ccs.PartyIDForKey(viewerKey)

	// Only a party can extend view rights.
	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/viewers", viewer.String(), api.GrantViewerRequest{Viewer: viewer.String()})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = b.request(t, http.MethodPost, "/api/shipments/"+testShipmentHex+"/viewers", b.consignee.String(), api.GrantViewerRequest{Viewer: viewer.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	handles := b.request(t, http.MethodGet, "/api/public/shipments/"+testShipmentHex+"/meta-handles", "", nil)
	var resp api.MetaHandlesResponse
	require.NoError(t, json.Unmarshal(handles.Body.Bytes(), &resp))

	cargo, err := interfaces.NewCipherHandleFromHex(resp.CargoTag)
	require.NoError(t, err)
	value, err := b.engine.Decrypt(context.Background(), cargo, viewer)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), value)
}
