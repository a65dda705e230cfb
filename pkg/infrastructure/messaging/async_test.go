package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
)

// gatedDispatcher blocks every publish until release is closed.
type gatedDispatcher struct {
	release chan struct{}
	mu      sync.Mutex
	events  []service.Event
	err     error
}

func (d *gatedDispatcher) Dispatch(event service.Event) error {
	<-d.release
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.err
}

func (d *gatedDispatcher) published() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func TestAsyncDispatcher(t *testing.T) {
	event := model.OrderCreated{OrderID: uuid.New()}

	t.Run("Dispatch returns while the broker is stuck", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		next := &gatedDispatcher{release: make(chan struct{})}
		d := NewAsyncDispatcher(next, 4, logger)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- d.Run(ctx) }()

		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, d.Dispatch(event))
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)
		assert.Equal(t, 0, next.published())

		close(next.release)
		assert.Eventually(t, func() bool { return next.published() == 3 }, time.Second, 5*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
	})

	t.Run("Full queue drops the event", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		d := NewAsyncDispatcher(&gatedDispatcher{release: make(chan struct{})}, 1, logger)

		require.NoError(t, d.Dispatch(event))
		assert.ErrorIs(t, d.Dispatch(event), ErrQueueFull)
	})

	t.Run("Queued events are flushed on shutdown", func(t *testing.T) {
		logger, _ := test.NewNullLogger()
		next := &gatedDispatcher{release: make(chan struct{})}
		close(next.release)
		d := NewAsyncDispatcher(next, 4, logger)

		require.NoError(t, d.Dispatch(event))
		require.NoError(t, d.Dispatch(event))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, d.Run(ctx))
		assert.Equal(t, 2, next.published())
	})

	t.Run("Publish failures are logged", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		next := &gatedDispatcher{release: make(chan struct{}), err: errBroker}
		close(next.release)
		d := NewAsyncDispatcher(next, 4, logger)

		require.NoError(t, d.Dispatch(event))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, d.Run(ctx))

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "failed to publish event", hook.LastEntry().Message)
		assert.Equal(t, "OrderCreated", hook.LastEntry().Data["event"])
	})
}
