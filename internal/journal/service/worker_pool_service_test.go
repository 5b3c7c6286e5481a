package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/shared"
)

// MockJournalService mocks the JournalService interface
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) Record(ctx context.Context, event *journal.Event, raw json.RawMessage) error {
	return m.Called(ctx, event, raw).Error(0)
}

func TestWorkerPoolJournalService_Record(t *testing.T) {
	ev, raw := promotedEvent(t)

	tests := []struct {
		name          string
		setupMocks    func(base *MockJournalService)
		expectedError error
	}{
		{
			name: "successful record",
			setupMocks: func(base *MockJournalService) {
				base.On("Record", mock.Anything, ev, raw).Return(nil).Once()
			},
		},
		{
			name: "record error",
			setupMocks: func(base *MockJournalService) {
				base.On("Record", mock.Anything, ev, raw).Return(errors.New("record error")).Once()
			},
			expectedError: errors.New("record error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &MockJournalService{}
			svc, err := NewWorkerPoolJournalService(base, WorkerPoolConfig{Size: 2}, newTestLogger())
			assert.NoError(t, err)
			defer svc.Shutdown()

			tt.setupMocks(base)

			err = svc.Record(context.Background(), ev, raw)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
			base.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolJournalService_ContextCancelled(t *testing.T) {
	base := &MockJournalService{}
	release := make(chan struct{})
	base.On("Record", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	svc, err := NewWorkerPoolJournalService(base, WorkerPoolConfig{Size: 1}, newTestLogger())
	assert.NoError(t, err)
	defer svc.Shutdown()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ev, raw := promotedEvent(t)
	err = svc.Record(ctx, ev, raw)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerPoolJournalService_Concurrency(t *testing.T) {
	base := &MockJournalService{}
	var counter int64
	base.On("Record", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&counter, 1)
	}).Return(nil)

	svc, err := NewWorkerPoolJournalService(base, WorkerPoolConfig{Size: 5}, newTestLogger())
	assert.NoError(t, err)
	defer svc.Shutdown()

	numEvents := 10
	var wg sync.WaitGroup
	wg.Add(numEvents)
	for i := 0; i < numEvents; i++ {
		go func() {
			defer wg.Done()
			ev := &journal.Event{EventType: shared.EventTypeClosureClosed, AggregateID: uuid.New(), RegisterID: 1}
			assert.NoError(t, svc.Record(context.Background(), ev, json.RawMessage(`{}`)))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(numEvents), atomic.LoadInt64(&counter))
	assert.Equal(t, 5, svc.Capacity())
}
