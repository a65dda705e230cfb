package messaging

import (
	"time"

	"github.com/cenkalti/backoff"
)

// RetryPolicy bounds the attempts a publisher makes for one event.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: 200 * time.Millisecond, MaxElapsedTime: 5 * time.Second}
}

func (p RetryPolicy) do(operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxElapsedTime = p.MaxElapsedTime
	return backoff.Retry(operation, backoff.WithMaxRetries(b, p.MaxRetries))
}
