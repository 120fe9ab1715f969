package migrations

import (
	"errors"

	"github.com/cortega/playerauction/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var log = logger.GetLogger()

// RunMigrations applies every pending SQL migration against the database
// the DSN points at. A database already at the latest version is not an
// error.
func RunMigrations(dsn string) error {
	log.Info("Running database migrations")
	m, err := migrate.New(
		"file://internal/shared/db/migrations/sql",
		dsn,
	)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
