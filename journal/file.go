package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// FileSink appends events as JSON lines to a file in the base
// directory. One record per line, flushed per append.
type FileSink struct {
	baseDir     string
	path        string
	log         *slog.Logger
	locationURI string

	mu sync.Mutex
}

// NewFileSink creates a file journal under the specified base directory.
func NewFileSink(baseDir string, log *slog.Logger) (*FileSink, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	return &FileSink{
		baseDir:     baseDir,
		path:        filepath.Join(baseDir, "events.jsonl"),
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Append writes one event as a JSON line.
func (s *FileSink) Append(ctx context.Context, ev interfaces.Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	s.log.Debug("Appended event to file journal",
		slog.String("path", s.path),
		slog.String("event_id", ev.ID))
	return nil
}

// Name returns the sink identifier.
func (s *FileSink) Name() string { return "file" }

// Available reports whether the journal directory is accessible.
func (s *FileSink) Available(ctx context.Context) bool {
	info, err := os.Stat(s.baseDir)
	return err == nil && info.IsDir()
}

// LocationURI returns the URI the sink was created from.
func (s *FileSink) LocationURI() string { return s.locationURI }
