package messaging

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/service"
)

const (
	BackendLog   = "log"
	BackendAMQP  = "amqp"
	BackendKafka = "kafka"
)

// Dispatcher is an event publisher owning a broker connection.
type Dispatcher interface {
	service.EventDispatcher
	Close() error
}

type Config struct {
	Backend      string
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers string
	KafkaTopic   string
	Retry        RetryPolicy
}

func New(c Config, logger log.FieldLogger) (Dispatcher, error) {
	switch c.Backend {
	case BackendLog, "":
		return NewLogDispatcher(logger), nil
	case BackendAMQP:
		return NewAMQPDispatcher(c.AMQPURL, c.AMQPExchange, c.Retry)
	case BackendKafka:
		return NewKafkaDispatcher(c.KafkaBrokers, c.KafkaTopic, c.Retry)
	}
	return nil, errors.Errorf("unknown notifier backend %q", c.Backend)
}
