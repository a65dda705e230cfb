package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cenkalti/backoff"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campustrade/pkg/domain/model"
)

func newTestUnitOfWork(t *testing.T, retries uint64) (*UnitOfWork, sqlmock.Sqlmock, *test.Hook) {
	t.Helper()
	db, mock := newMockDB(t)
	logger, hook := test.NewNullLogger()
	uow := NewUnitOfWork(db, logger)
	uow.backOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
	return uow, mock, hook
}

func TestUnitOfWork(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	product := &model.Product{ID: uuid.New(), Quantity: 1, Status: model.ProductActive, Version: 2, UpdatedAt: now}

	updateProduct := func(repos model.RepositoryProvider) error {
		return repos.Products().Update(ctx, product)
	}

	t.Run("Commits when the work succeeds", func(t *testing.T) {
		uow, mock, _ := newTestUnitOfWork(t, 3)
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, uow.Execute(ctx, updateProduct))
	})

	t.Run("Rolls back domain errors without retrying", func(t *testing.T) {
		uow, mock, _ := newTestUnitOfWork(t, 3)
		mock.ExpectBegin()
		mock.ExpectRollback()

		calls := 0
		err := uow.Execute(ctx, func(model.RepositoryProvider) error {
			calls++
			return model.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		assert.Equal(t, 1, calls)
	})

	t.Run("Stale version is not retried", func(t *testing.T) {
		uow, mock, _ := newTestUnitOfWork(t, 3)
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, uow.Execute(ctx, updateProduct), model.ErrOptimisticLock)
	})

	t.Run("Deadlock victim runs again", func(t *testing.T) {
		uow, mock, hook := newTestUnitOfWork(t, 3)
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnError(&mysql.MySQLError{Number: erLockDeadlock})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, uow.Execute(ctx, updateProduct))

		require.Len(t, hook.AllEntries(), 1)
		assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, 1, hook.LastEntry().Data["attempt"])
	})

	t.Run("Lock wait timeout on commit runs again", func(t *testing.T) {
		uow, mock, _ := newTestUnitOfWork(t, 3)
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit().WillReturnError(&mysql.MySQLError{Number: erLockWaitTimeout})
		mock.ExpectBegin()
		mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, uow.Execute(ctx, updateProduct))
	})

	t.Run("Gives up after the retry budget", func(t *testing.T) {
		uow, mock, hook := newTestUnitOfWork(t, 2)
		for i := 0; i < 3; i++ {
			mock.ExpectBegin()
			mock.ExpectExec(sqlText("UPDATE products SET")).WillReturnError(&mysql.MySQLError{Number: erLockWaitTimeout})
			mock.ExpectRollback()
		}

		err := uow.Execute(ctx, updateProduct)
		assert.ErrorIs(t, err, model.ErrOptimisticLock)
		assert.Len(t, hook.AllEntries(), 2)
	})

	t.Run("Begin failure is reported", func(t *testing.T) {
		uow, mock, _ := newTestUnitOfWork(t, 3)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := uow.Execute(ctx, updateProduct)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin transaction")
	})
}
