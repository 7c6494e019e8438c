package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testEntry() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID: "entry-1",
		Record: domain.EnrichedRecord{
			Position:   domain.PositionFix{Key: "353136000", DisplayName: "EVER GIVEN", Latitude: 30.01, Longitude: 32.57},
			Provenance: domain.ProvenanceLive,
		},
		CreatedAt:     time.Date(2024, 3, 23, 8, 0, 0, 0, time.UTC),
		OriginMessage: domain.OriginLiveFetch,
	}
}

func TestSerializeToMessage(t *testing.T) {
	entry := testEntry()

	msg, err := serializeToMessage(entry)
	require.NoError(t, err)

	assert.Equal(t, []byte("353136000"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, HeaderOriginMessage, msg.Headers[0].Key)
	assert.Equal(t, []byte("live fetch"), msg.Headers[0].Value)
	assert.Equal(t, HeaderCreatedAt, msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-03-23T08:00:00Z"), msg.Headers[1].Value)

	var decoded domain.HistoryEntry
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, entry.ID, decoded.ID)
	assert.Equal(t, "EVER GIVEN", decoded.Record.Position.DisplayName)
}

func TestWriter_Append(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, w.Append(context.Background(), testEntry()))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, []byte("353136000"), fw.msgs[0].Key)
}

func TestWriter_Append_Error(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := w.Append(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry-1")
	assert.Contains(t, err.Error(), "broker down")
}
