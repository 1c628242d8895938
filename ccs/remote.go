package ccs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sealane/confidential-shipment-backend/attest"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// RemoteService forwards Confidential Computation Service calls to an
// external engine over HTTP. Multiple endpoints may be configured; each
// call tries them in order until one answers.
type RemoteService struct {
	endpoints []string
	client    *http.Client
	provider  attest.Provider
	log       *slog.Logger
}

// NewRemoteService creates a client for the given endpoints. The
// attestation provider is attached to trusted-input casts; pass
// attest.DummyProvider{} outside TEE deployments.
func NewRemoteService(endpoints []string, provider attest.Provider, log *slog.Logger) (*RemoteService, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &RemoteService{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 30 * time.Second},
		provider:  provider,
		log:       log,
	}, nil
}

type submitRequest struct {
	Ciphertext string `json:"ciphertext"`
	Proof      string `json:"proof"`
	Shipment   string `json:"shipment"`
	Submitter  string `json:"submitter"`
}

type encryptTrustedRequest struct {
	Value           uint64 `json:"value"`
	AttestationType string `json:"attestation_type"`
	Quote           string `json:"quote"`
}

type compareRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type grantRequest struct {
	Handle string `json:"handle"`
	Scope  string `json:"scope,omitempty"`
	Viewer string `json:"viewer,omitempty"`
}

type decryptRequest struct {
	Handle string `json:"handle"`
	Caller string `json:"caller"`
}

type handleResponse struct {
	Handle string `json:"handle"`
}

type valueResponse struct {
	Value uint64 `json:"value"`
}

// SubmitExternal forwards an external ciphertext and its proof.
func (s *RemoteService) SubmitExternal(ctx context.Context, ciphertext, proof []byte, binding interfaces.ProofBinding) (interfaces.CipherHandle, error) {
	var resp handleResponse
	err := s.post(ctx, "/api/v1/submit", submitRequest{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Proof:      base64.StdEncoding.EncodeToString(proof),
		Shipment:   binding.Shipment.String(),
		Submitter:  binding.Submitter.String(),
	}, &resp)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}
	return interfaces.NewCipherHandleFromHex(resp.Handle)
}

// EncryptTrusted forwards a trusted-input cast with a quote over the
// value so the engine can check the cast originates from an attested
// host.
func (s *RemoteService) EncryptTrusted(ctx context.Context, value uint64) (interfaces.CipherHandle, error) {
	var report [64]byte
	var valueBytes [8]byte
	binary.BigEndian.PutUint64(valueBytes[:], value)
	digest := sha256.Sum256(valueBytes[:])
	copy(report[:32], digest[:])

	quote, err := s.provider.Attest(report)
	if err != nil {
		return interfaces.CipherHandle{}, fmt.Errorf("attesting trusted cast: %w", err)
	}

	var resp handleResponse
	err = s.post(ctx, "/api/v1/encrypt-trusted", encryptTrustedRequest{
		Value:           value,
		AttestationType: s.provider.AttestationType(),
		Quote:           base64.StdEncoding.EncodeToString(quote),
	}, &resp)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}
	return interfaces.NewCipherHandleFromHex(resp.Handle)
}

// CompareLE forwards an encrypted less-or-equal comparison.
func (s *RemoteService) CompareLE(ctx context.Context, a, b interfaces.CipherHandle) (interfaces.CipherHandle, error) {
	var resp handleResponse
	err := s.post(ctx, "/api/v1/compare-le", compareRequest{A: a.String(), B: b.String()}, &resp)
	if err != nil {
		return interfaces.CipherHandle{}, err
	}
	return interfaces.NewCipherHandleFromHex(resp.Handle)
}

// GrantUse forwards a use grant.
func (s *RemoteService) GrantUse(ctx context.Context, h interfaces.CipherHandle, scope interfaces.ShipmentID) error {
	return s.post(ctx, "/api/v1/grant-use", grantRequest{Handle: h.String(), Scope: scope.String()}, nil)
}

// GrantView forwards a view grant.
func (s *RemoteService) GrantView(ctx context.Context, h interfaces.CipherHandle, viewer interfaces.PartyID) error {
	return s.post(ctx, "/api/v1/grant-view", grantRequest{Handle: h.String(), Viewer: viewer.String()}, nil)
}

// MarkPublic forwards the public-decryption flag.
func (s *RemoteService) MarkPublic(ctx context.Context, h interfaces.CipherHandle) error {
	return s.post(ctx, "/api/v1/mark-public", grantRequest{Handle: h.String()}, nil)
}

// TransportBytes returns the opaque transport token of a handle.
func (s *RemoteService) TransportBytes(h interfaces.CipherHandle) interfaces.TransportToken {
	return interfaces.TransportToken(h)
}

// Decrypt forwards an out-of-band decryption request.
func (s *RemoteService) Decrypt(ctx context.Context, h interfaces.CipherHandle, caller interfaces.PartyID) (uint64, error) {
	var resp valueResponse
	err := s.post(ctx, "/api/v1/decrypt", decryptRequest{Handle: h.String(), Caller: caller.String()}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// post tries each endpoint in order, decoding the JSON response into out
// when it is non-nil.
func (s *RemoteService) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for _, endpoint := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+endpoint+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.log.Debug("CCS endpoint unreachable", "endpoint", endpoint, "err", err)
			continue
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("all CCS endpoints failed: %w", lastErr)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch resp.StatusCode {
		case http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", interfaces.ErrAttestationRejected, msg)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", interfaces.ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", interfaces.ErrNotFound, msg)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", interfaces.ErrInvalidInput, msg)
		default:
			return fmt.Errorf("CCS returned status %d: %s", resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
