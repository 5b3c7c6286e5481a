package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/retail-pos-engine/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetchErrs) > 0 {
		err := r.fetchErrs[0]
		r.fetchErrs = r.fetchErrs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.committed))
	for _, m := range r.committed {
		keys = append(keys, string(m.Key))
	}
	return keys
}

func TestNewKafkaConsumer(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		EventTopic:    "test-topic",
		ConsumerGroup: "test-group",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), logger, cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader, "Kafka reader should be initialized")
	assert.Equal(t, logger, consumer.logger)
	require.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("CommitsOnlyHandledMessages", func(t *testing.T) {
		reader := &fakeReader{
			fetchErrs: []error{errors.New("leader not available")},
			messages: []kafka.Message{
				{Key: []byte("ok-1"), Value: []byte("a")},
				{Key: []byte("bad"), Value: []byte("b")},
				{Key: []byte("ok-2"), Value: []byte("c")},
			},
		}
		consumer := newKafkaConsumerWithReader(logger, reader)
		consumer.retryBackoff = time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		var handled []string
		var mu sync.Mutex
		err := consumer.Subscribe(ctx, "topic", "group", func(_ context.Context, key, _ []byte) error {
			mu.Lock()
			defer mu.Unlock()
			handled = append(handled, string(key))
			if string(key) == "bad" {
				return errors.New("handler failed")
			}
			return nil
		})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			return len(reader.committedKeys()) == 2
		}, time.Second, 5*time.Millisecond)

		cancel()
		select {
		case <-consumer.Done():
		case <-time.After(time.Second):
			t.Fatal("consumer loop did not stop")
		}

		assert.Equal(t, []string{"ok-1", "ok-2"}, reader.committedKeys())
		mu.Lock()
		assert.Equal(t, []string{"ok-1", "bad", "ok-2"}, handled)
		mu.Unlock()
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: logger}
		require.NoError(t, consumer.Close(), "Close should return nil if reader is nil")
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := &fakeReader{}
		consumer := newKafkaConsumerWithReader(logger, reader)
		require.NoError(t, consumer.Close())
		assert.True(t, reader.closed)
	})
}
