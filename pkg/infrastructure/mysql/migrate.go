package mysql

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending migrations. A positive down value rolls back that
// many migrations instead.
func Migrate(c Config, down int, logger log.FieldLogger) error {
	db, err := sql.Open("mysql", c.DSN(true))
	if err != nil {
		return errors.Wrap(err, "open mysql connection")
	}
	defer db.Close()

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{DatabaseName: c.Database})
	if err != nil {
		return errors.Wrap(err, "create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, c.Database, driver)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}

	if down > 0 {
		err = m.Steps(-down)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("database schema is up to date")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errors.Wrap(err, "read schema version")
	}
	logger.WithFields(log.Fields{"version": version, "dirty": dirty}).Info("database schema migrated")
	return nil
}
