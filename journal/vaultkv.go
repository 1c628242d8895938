package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// VaultSink writes events to a HashiCorp Vault KV v2 mount. Useful when
// the journal must live next to other access-audited material.
type VaultSink struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultSink creates a Vault KV journal sink. The token must carry
// create rights on mountPath/data/dataPath/*.
func NewVaultSink(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultSink, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	return &VaultSink{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Append stores one event under mount/data/path/<shipment>/<event id>.
func (s *VaultSink) Append(ctx context.Context, ev interfaces.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	secretPath := fmt.Sprintf("%s/data/%s/%s/%s", s.mountPath, s.dataPath, ev.Shipment, ev.ID)
	_, err = s.client.Logical().WriteWithContext(ctx, secretPath, map[string]interface{}{
		"data": map[string]interface{}{
			"event": string(body),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to store event in Vault: %w", err)
	}

	s.log.Debug("Appended event to Vault journal",
		slog.String("path", secretPath),
		slog.String("event_id", ev.ID))
	return nil
}

// Name returns the sink identifier.
func (s *VaultSink) Name() string { return "vault" }

// Available reports whether the Vault server answers a health check.
func (s *VaultSink) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	return err == nil && health.Initialized && !health.Sealed
}

// LocationURI returns the URI the sink was created from.
func (s *VaultSink) LocationURI() string { return s.locationURI }
