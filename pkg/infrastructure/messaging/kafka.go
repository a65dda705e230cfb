package messaging

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"campustrade/pkg/domain/service"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaDispatcher struct {
	writer messageWriter
	retry  RetryPolicy
	now    func() time.Time
}

// NewKafkaDispatcher publishes events to one topic. Messages are keyed by
// event type so each type keeps its order within a partition.
func NewKafkaDispatcher(brokersCSV, topic string, retry RetryPolicy) (Dispatcher, error) {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, errors.New("kafka dispatcher needs at least one broker")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: publishTimeout,
	}
	return newKafkaDispatcher(writer, retry), nil
}

func newKafkaDispatcher(writer messageWriter, retry RetryPolicy) *kafkaDispatcher {
	return &kafkaDispatcher{writer: writer, retry: retry, now: time.Now}
}

func (d *kafkaDispatcher) Dispatch(event service.Event) error {
	now := d.now()
	body, err := encode(event, now)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.Type()),
		Value: body,
		Time:  now.UTC(),
	}
	return d.retry.do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		return d.writer.WriteMessages(ctx, msg)
	})
}

func (d *kafkaDispatcher) Close() error {
	return errors.Wrap(d.writer.Close(), "close kafka writer")
}

func splitBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
