package producers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestEventProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	topic := "test-register-events"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := NewEventProducerWithWriter(logger, mockWriter, topic)

		value := []byte(`{"event_type":"document.promoted"}`)
		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == "register-1" &&
				string(msg.Value) == string(value) &&
				len(msg.Headers) == 1 &&
				msg.Headers[0].Key == HeaderEventType &&
				string(msg.Headers[0].Value) == "document.promoted"
		})).Return(nil).Once()

		err := producer.Publish(ctx, "register-1", "document.promoted", value)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := NewEventProducerWithWriter(logger, mockWriter, topic)
		writeErr := errors.New("broker unavailable")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writeErr).Once()

		err := producer.Publish(ctx, "register-1", "closure.closed", []byte(`{}`))
		assert.ErrorIs(t, err, writeErr)
		mockWriter.AssertExpectations(t)
	})
}

func TestEventProducer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mockWriter := new(MockKafkaWriter)
	producer := NewEventProducerWithWriter(logger, mockWriter, "topic")

	closeErr := errors.New("close failed")
	mockWriter.On("Close").Return(closeErr).Once()

	assert.ErrorIs(t, producer.Close(), closeErr)
	mockWriter.AssertExpectations(t)
}
