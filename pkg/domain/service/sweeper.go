package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// OrderSweeper periodically cancels orders the seller never confirmed.
type OrderSweeper struct {
	orders   OrderService
	ttl      time.Duration
	interval time.Duration
	logger   log.FieldLogger
}

func NewOrderSweeper(orders OrderService, ttl, interval time.Duration, logger log.FieldLogger) *OrderSweeper {
	return &OrderSweeper{orders: orders, ttl: ttl, interval: interval, logger: logger}
}

// Run sweeps once per interval until ctx is done.
func (s *OrderSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *OrderSweeper) SweepOnce(ctx context.Context) int {
	expired, err := s.orders.ExpireStaleOrders(ctx, s.ttl)
	if err != nil {
		s.logger.WithError(err).Error("stale order sweep failed")
	}
	if expired > 0 {
		s.logger.WithFields(log.Fields{"expired": expired, "ttl": s.ttl.String()}).Info("expired stale orders")
	}
	return expired
}
