package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// IPFSSink publishes one object per event to an IPFS node. Events carry
// only tokens, so content-addressed public replication is acceptable.
type IPFSSink struct {
	shell       *shell.Shell
	log         *slog.Logger
	locationURI string
}

// NewIPFSSink creates an IPFS journal sink connected to the node at
// host:port.
func NewIPFSSink(host, port string, log *slog.Logger) (*IPFSSink, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	return &IPFSSink{
		shell:       shell.NewShell(apiURL),
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/", apiURL),
	}, nil
}

// Append adds one event object and logs its CID.
func (s *IPFSSink) Append(ctx context.Context, ev interfaces.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	cid, err := s.shell.Add(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to add event to IPFS: %w", err)
	}

	s.log.Debug("Appended event to IPFS journal",
		slog.String("cid", cid),
		slog.String("event_id", ev.ID))
	return nil
}

// Name returns the sink identifier.
func (s *IPFSSink) Name() string { return "ipfs" }

// Available reports whether the IPFS node answers a version request.
func (s *IPFSSink) Available(ctx context.Context) bool {
	_, _, err := s.shell.Version()
	return err == nil
}

// LocationURI returns the URI the sink was created from.
func (s *IPFSSink) LocationURI() string { return s.locationURI }
