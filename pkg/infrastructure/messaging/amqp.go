package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"campustrade/pkg/domain/service"
)

const publishTimeout = 5 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpDispatcher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	retry    RetryPolicy
	now      func() time.Time
}

// NewAMQPDispatcher publishes events to a durable topic exchange. The routing
// key is the event type.
func NewAMQPDispatcher(url, exchange string, retry RetryPolicy) (Dispatcher, error) {
	var conn *amqp.Connection
	err := retry.do(func() error {
		var err error
		conn, err = amqp.Dial(url)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open amqp channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return newAMQPDispatcher(conn, ch, exchange, retry), nil
}

func newAMQPDispatcher(conn *amqp.Connection, ch amqpChannel, exchange string, retry RetryPolicy) *amqpDispatcher {
	return &amqpDispatcher{conn: conn, channel: ch, exchange: exchange, retry: retry, now: time.Now}
}

func (d *amqpDispatcher) Dispatch(event service.Event) error {
	now := d.now()
	body, err := encode(event, now)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now.UTC(),
		Type:         event.Type(),
		Body:         body,
	}

	return d.retry.do(func() error {
		return d.publish(event.Type(), msg)
	})
}

// publish holds the channel only for one attempt; backoff waits run unlocked.
func (d *amqpDispatcher) publish(key string, msg amqp.Publishing) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return d.channel.PublishWithContext(ctx, d.exchange, key, false, false, msg)
}

func (d *amqpDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.channel.Close()
	if d.conn != nil {
		if connErr := d.conn.Close(); err == nil {
			err = connErr
		}
	}
	return errors.Wrap(err, "close amqp dispatcher")
}
