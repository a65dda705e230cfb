package messaging

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"campustrade/pkg/domain/service"
)

// Envelope is the wire form of every published notification.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func encode(event service.Event, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s payload", event.Type())
	}
	body, err := json.Marshal(Envelope{Type: event.Type(), OccurredAt: now.UTC(), Payload: payload})
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s envelope", event.Type())
	}
	return body, nil
}
