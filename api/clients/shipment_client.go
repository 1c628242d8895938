// Package clients provides HTTP clients for the shipment API.
package clients

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sealane/confidential-shipment-backend/api"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// ShipmentClient calls the shipment API on behalf of one party. The
// party identity is attached to every mutating request.
type ShipmentClient struct {
	// ServerAddr is the base URL of the shipment server.
	ServerAddr string

	// Party is the caller identity sent in the party header.
	Party interfaces.PartyID
}

func (c *ShipmentClient) do(method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.Party.IsNull() {
		req.Header.Set(api.PartyHeader, c.Party.String())
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach shipment server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", interfaces.ErrNotFound, msg)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", interfaces.ErrIllegalState, msg)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", interfaces.ErrUnauthorized, msg)
		case http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", interfaces.ErrAttestationRejected, msg)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", interfaces.ErrInvalidInput, msg)
		default:
			return fmt.Errorf("shipment server returned error %d: %s", resp.StatusCode, msg)
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Create registers a shipment with the client's party as shipper.
func (c *ShipmentClient) Create(id interfaces.ShipmentID, carrier, consignee interfaces.PartyID) error {
	url := fmt.Sprintf("%s/api/shipments/%s", c.ServerAddr, id)
	return c.do(http.MethodPost, url, api.CreateShipmentRequest{
		Carrier:   carrier.String(),
		Consignee: consignee.String(),
	}, nil)
}

func encodeField(in interfaces.EncryptedInput) api.EncryptedField {
	return api.EncryptedField{
		Ciphertext: base64.StdEncoding.EncodeToString(in.Ciphertext),
		Proof:      base64.StdEncoding.EncodeToString(in.Proof),
	}
}

// IngestMeta submits the three encrypted meta fields.
func (c *ShipmentClient) IngestMeta(id interfaces.ShipmentID, cargo, route, deadline interfaces.EncryptedInput) error {
	url := fmt.Sprintf("%s/api/shipments/%s/meta", c.ServerAddr, id)
	return c.do(http.MethodPost, url, api.IngestMetaRequest{
		CargoTag: encodeField(cargo),
		RouteTag: encodeField(route),
		Deadline: encodeField(deadline),
	}, nil)
}

// MarkDelivered marks the shipment delivered at the server clock.
func (c *ShipmentClient) MarkDelivered(id interfaces.ShipmentID) error {
	url := fmt.Sprintf("%s/api/shipments/%s/delivery", c.ServerAddr, id)
	return c.do(http.MethodPost, url, struct{}{}, nil)
}

// GrantViewer extends view rights to an additional identity.
func (c *ShipmentClient) GrantViewer(id interfaces.ShipmentID, viewer interfaces.PartyID) error {
	url := fmt.Sprintf("%s/api/shipments/%s/viewers", c.ServerAddr, id)
	return c.do(http.MethodPost, url, api.GrantViewerRequest{Viewer: viewer.String()}, nil)
}

// GetParticipants fetches the public participants projection.
func (c *ShipmentClient) GetParticipants(id interfaces.ShipmentID) (*api.ParticipantsResponse, error) {
	url := fmt.Sprintf("%s/api/public/shipments/%s/participants", c.ServerAddr, id)
	var out api.ParticipantsResponse
	if err := c.do(http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMetaHandles fetches the meta handle tokens.
func (c *ShipmentClient) GetMetaHandles(id interfaces.ShipmentID) (*api.MetaHandlesResponse, error) {
	url := fmt.Sprintf("%s/api/public/shipments/%s/meta-handles", c.ServerAddr, id)
	var out api.MetaHandlesResponse
	if err := c.do(http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResultHandles fetches the delivery flag and result handle tokens.
func (c *ShipmentClient) GetResultHandles(id interfaces.ShipmentID) (*api.ResultHandlesResponse, error) {
	url := fmt.Sprintf("%s/api/public/shipments/%s/result-handles", c.ServerAddr, id)
	var out api.ResultHandlesResponse
	if err := c.do(http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
