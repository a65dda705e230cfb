package service

import (
	log "github.com/sirupsen/logrus"
)

type Event interface{ Type() string }
type EventDispatcher interface{ Dispatch(event Event) error }

// pendingEvents collects events raised inside a unit of work. They are
// published only after the transaction commits.
type pendingEvents []Event

func (p *pendingEvents) add(events ...Event) { *p = append(*p, events...) }

// reset drops events of an attempt that was rolled back.
func (p *pendingEvents) reset() { *p = (*p)[:0] }

func (p pendingEvents) dispatch(dispatcher EventDispatcher, logger log.FieldLogger) {
	for _, event := range p {
		if err := dispatcher.Dispatch(event); err != nil {
			logger.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
		}
	}
}
