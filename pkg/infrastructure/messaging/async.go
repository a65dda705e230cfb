package messaging

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/service"
)

const DefaultQueueSize = 256

var ErrQueueFull = errors.New("event queue is full")

// AsyncDispatcher accepts events without blocking and publishes them to next
// from a single worker started by Run.
type AsyncDispatcher struct {
	next   service.EventDispatcher
	queue  chan service.Event
	logger log.FieldLogger
}

func NewAsyncDispatcher(next service.EventDispatcher, size int, logger log.FieldLogger) *AsyncDispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &AsyncDispatcher{next: next, queue: make(chan service.Event, size), logger: logger}
}

// Dispatch enqueues the event. A full queue drops it and reports ErrQueueFull.
func (d *AsyncDispatcher) Dispatch(event service.Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "drop %s", event.Type())
	}
}

// Run publishes queued events until ctx is done, then flushes what is left.
func (d *AsyncDispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.flush()
			return nil
		case event := <-d.queue:
			d.publish(event)
		}
	}
}

func (d *AsyncDispatcher) flush() {
	for {
		select {
		case event := <-d.queue:
			d.publish(event)
		default:
			return
		}
	}
}

func (d *AsyncDispatcher) publish(event service.Event) {
	if err := d.next.Dispatch(event); err != nil {
		d.logger.WithError(err).WithField("event", event.Type()).Error("failed to publish event")
	}
}
