package messaging

import (
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/service"
)

type logDispatcher struct {
	logger log.FieldLogger
}

// NewLogDispatcher writes every event to the structured log.
func NewLogDispatcher(logger log.FieldLogger) Dispatcher {
	return &logDispatcher{logger: logger}
}

func (d *logDispatcher) Dispatch(event service.Event) error {
	d.logger.WithFields(log.Fields{
		"event":   event.Type(),
		"payload": event,
	}).Info("domain event")
	return nil
}

func (d *logDispatcher) Close() error { return nil }
