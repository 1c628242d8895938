package journal

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// Factory creates journal sinks from URI strings.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a sink factory.
func NewFactory(log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{log: log}
}

// SinkFor creates a sink from a location URI.
//
// Supported schemes:
//   - log:// - structured log only
//   - file:// - local JSONL file
//   - s3:// - S3 or compatible object storage
//   - ipfs:// - IPFS node
//   - vault:// - HashiCorp Vault KV v2 (token from VAULT_TOKEN)
func (f *Factory) SinkFor(locationURI string) (interfaces.EventSink, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid journal URI %q: %w", locationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "log":
		return NewLogSink(f.log), nil

	case "file":
		return NewFileSink(u.Path, f.log)

	case "s3":
		q := u.Query()
		return NewS3Sink(
			u.Host,
			strings.TrimPrefix(u.Path, "/"),
			q.Get("region"),
			q.Get("endpoint"),
			q.Get("access_key"),
			q.Get("secret_key"),
			f.log,
		)

	case "ipfs":
		host := u.Hostname()
		port := u.Port()
		if port == "" {
			port = "5001"
		}
		return NewIPFSSink(host, port, f.log)

	case "vault":
		q := u.Query()
		mount := q.Get("mount")
		if mount == "" {
			mount = "secret"
		}
		dataPath := q.Get("path")
		if dataPath == "" {
			dataPath = "shipment-journal"
		}
		scheme := q.Get("scheme")
		if scheme == "" {
			scheme = "https"
		}
		return NewVaultSink(
			fmt.Sprintf("%s://%s", scheme, u.Host),
			mount,
			dataPath,
			os.Getenv("VAULT_TOKEN"),
			f.log,
		)

	default:
		return nil, fmt.Errorf("unsupported journal scheme: %s", u.Scheme)
	}
}

// MultiSinkFor creates a fan-out sink from a list of URIs, skipping
// URIs that fail to produce a sink. At least one sink must be created.
func (f *Factory) MultiSinkFor(locationURIs []string) (interfaces.EventSink, error) {
	sinks := make([]interfaces.EventSink, 0, len(locationURIs))

	for _, uri := range locationURIs {
		sink, err := f.SinkFor(uri)
		if err != nil {
			f.log.Warn("Failed to create journal sink",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 0 {
		return nil, fmt.Errorf("no valid journal sinks created")
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks, f.log), nil
}
