package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memoryWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memoryWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublish(t *testing.T) {
	w := &memoryWriter{}
	p, err := NewProducer(WithWriter(w))
	require.NoError(t, err)

	payload := map[string]any{"owner": "alice", "coin_ids": []string{"bitcoin"}}
	require.NoError(t, p.Publish(context.Background(), "watchlist-events", []byte("alice"), payload))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw line"))

	require.Len(t, w.msgs, 2)
	require.Equal(t, "watchlist-events", w.msgs[0].Topic)
	require.Equal(t, []byte("alice"), w.msgs[0].Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, "alice", decoded["owner"])
	require.Equal(t, "raw line", string(w.msgs[1].Value))

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestProducerPublishError(t *testing.T) {
	boom := errors.New("broker down")
	p, err := NewProducer(WithWriter(&memoryWriter{err: boom}))
	require.NoError(t, err)

	err = p.Publish(context.Background(), "t", nil, "x")
	require.ErrorIs(t, err, boom)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
