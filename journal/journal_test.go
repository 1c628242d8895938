package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() interfaces.Event {
	var id interfaces.ShipmentID
	id[0] = 7
	return interfaces.Event{
		ID:       uuid.NewString(),
		Kind:     interfaces.EventShipmentCreated,
		Shipment: id,
		Parties:  map[string]string{"shipper": "aa"},
	}
}

// stubSink is a controllable sink for fan-out tests.
type stubSink struct {
	name      string
	available bool
	err       error
	appended  int
}

func (s *stubSink) Append(ctx context.Context, ev interfaces.Event) error {
	if s.err != nil {
		return s.err
	}
	s.appended++
	return nil
}

func (s *stubSink) Name() string                     { return s.name }
func (s *stubSink) Available(ctx context.Context) bool { return s.available }

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, slog.Default())
	require.NoError(t, err)
	require.True(t, sink.Available(context.Background()))

	first := testEvent()
	second := testEvent()
	require.NoError(t, sink.Append(context.Background(), first))
	require.NoError(t, sink.Append(context.Background(), second))

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var got []interfaces.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev interfaces.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		got = append(got, ev)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, first.Shipment, got[0].Shipment)
	assert.Equal(t, first.Parties, got[0].Parties)
}

func TestMultiSinkBestEffort(t *testing.T) {
	failing := &stubSink{name: "failing", available: true, err: errors.New("sink down")}
	healthy := &stubSink{name: "healthy", available: true}
	offline := &stubSink{name: "offline", available: false}

	multi := NewMultiSink([]interfaces.EventSink{failing, healthy, offline}, nil)
	require.True(t, multi.Available(context.Background()))

	// One failing and one unavailable sink do not sink the append.
	require.NoError(t, multi.Append(context.Background(), testEvent()))
	assert.Equal(t, 1, healthy.appended)
	assert.Equal(t, 0, offline.appended)
}

func TestMultiSinkAllFailed(t *testing.T) {
	failing := &stubSink{name: "failing", available: true, err: errors.New("sink down")}
	offline := &stubSink{name: "offline", available: false}

	multi := NewMultiSink([]interfaces.EventSink{failing, offline}, nil)
	err := multi.Append(context.Background(), testEvent())
	assert.Error(t, err)
}

func TestMultiSinkAvailability(t *testing.T) {
	offline := &stubSink{name: "offline", available: false}
	multi := NewMultiSink([]interfaces.EventSink{offline}, nil)
	assert.False(t, multi.Available(context.Background()))
}

func TestFactorySinkFor(t *testing.T) {
	factory := NewFactory(nil)

	sink, err := factory.SinkFor("log://")
	require.NoError(t, err)
	assert.Equal(t, "log", sink.Name())

	dir := t.TempDir()
	sink, err = factory.SinkFor("file://" + dir)
	require.NoError(t, err)
	assert.Equal(t, "file", sink.Name())
	assert.Equal(t, dir, sink.(*FileSink).baseDir)

	_, err = factory.SinkFor("carrier-pigeon://somewhere")
	assert.Error(t, err)
}

func TestFactoryMultiSinkFor(t *testing.T) {
	factory := NewFactory(nil)

	// Invalid URIs are skipped; a single survivor is returned unwrapped.
	sink, err := factory.MultiSinkFor([]string{"bogus://", "log://"})
	require.NoError(t, err)
	assert.Equal(t, "log", sink.Name())

	sink, err = factory.MultiSinkFor([]string{"log://", "file://" + t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "multi", sink.Name())

	_, err = factory.MultiSinkFor([]string{"bogus://"})
	assert.Error(t, err)
}
