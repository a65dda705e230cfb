package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/model"
)

const (
	maxLockRetries      = 3
	lockRetryInterval   = 20 * time.Millisecond
	lockRetryMaxElapsed = 2 * time.Second
)

type UnitOfWork struct {
	db      *sqlx.DB
	logger  log.FieldLogger
	backOff func() backoff.BackOff
}

func NewUnitOfWork(db *sqlx.DB, logger log.FieldLogger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger, backOff: newLockBackOff}
}

func newLockBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = lockRetryInterval
	b.MaxElapsedTime = lockRetryMaxElapsed
	return backoff.WithMaxRetries(b, maxLockRetries)
}

// Execute runs fn inside a READ COMMITTED transaction. Row locks taken by the
// repositories' FindForUpdate methods are held until commit or rollback.
// A transaction that loses a deadlock or times out waiting for a lock is
// rolled back and fn runs again on fresh rows.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(repos model.RepositoryProvider) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := u.execute(ctx, fn)
		if err != nil && !isLockContention(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		u.logger.WithError(err).WithFields(log.Fields{"attempt": attempt, "wait": wait.String()}).
			Warn("transaction hit lock contention, retrying")
	}
	return backoff.RetryNotify(operation, backoff.WithContext(u.backOff(), ctx), notify)
}

func (u *UnitOfWork) execute(ctx context.Context, fn func(repos model.RepositoryProvider) error) (err error) {
	tx, err := u.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			u.logger.WithError(rbErr).Error("failed to roll back transaction")
		}
	}()

	if err = fn(&repositoryProvider{tx: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

type repositoryProvider struct {
	tx sqlx.ExtContext
}

func (p *repositoryProvider) Products() model.ProductRepository {
	return &productRepository{db: p.tx}
}

func (p *repositoryProvider) Orders() model.OrderRepository {
	return &orderRepository{db: p.tx}
}

func (p *repositoryProvider) Users() model.UserRepository {
	return &userRepository{db: p.tx}
}

func (p *repositoryProvider) Credits() model.CreditRepository {
	return &creditRepository{db: p.tx}
}

func (p *repositoryProvider) Evaluations() model.EvaluationRepository {
	return &evaluationRepository{db: p.tx}
}

func (p *repositoryProvider) ReturnRequests() model.ReturnRequestRepository {
	return &returnRequestRepository{db: p.tx}
}
