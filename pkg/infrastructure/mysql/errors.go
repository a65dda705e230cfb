package mysql

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"campustrade/pkg/domain/model"
)

const (
	erDupEntry        = 1062
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// errLockContention is a deadlock or lock wait timeout. The unit of work
// retries it; callers that still see it get model.ErrOptimisticLock.
var errLockContention = errors.Wrap(model.ErrOptimisticLock, "lock contention")

// translate turns driver failures into domain errors. notFound and duplicate
// are returned for missing rows and unique key violations; anything else is
// wrapped with op for the logs.
func translate(err error, op string, notFound, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case erDupEntry:
			if duplicate != nil {
				return duplicate
			}
			return errors.Wrap(model.ErrConflict, op)
		case erLockDeadlock, erLockWaitTimeout:
			return errLockContention
		}
	}
	return errors.Wrap(err, op)
}

func expectOneRow(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if affected != 1 {
		return model.ErrOptimisticLock
	}
	return nil
}

func isLockContention(err error) bool {
	if errors.Is(err, errLockContention) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && (mysqlErr.Number == erLockDeadlock || mysqlErr.Number == erLockWaitTimeout)
}
