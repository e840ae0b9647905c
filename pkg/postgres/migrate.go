package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migrationLogger struct{}

func (migrationLogger) Printf(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func (migrationLogger) Verbose() bool { return false }

// Migrate applies every pending embedded migration.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrationLogger{}

	return runMigrations(m)
}

type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// runMigrations applies pending migrations and then releases the source and
// the dedicated connection the postgres driver holds. The pool stays open.
func runMigrations(m migrator) error {
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn().Err(srcErr).Msg("close migration source")
		}
		if dbErr != nil {
			log.Warn().Err(dbErr).Msg("close migration driver")
		}
	}()

	start := time.Now()
	err := m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("no new migrations to apply")
		return nil
	case err != nil:
		version, dirty, _ := m.Version()
		return fmt.Errorf("apply migrations (version=%d dirty=%t): %w", version, dirty, err)
	}

	version, _, _ := m.Version()
	log.Info().
		Uint("version", version).
		Dur("elapsed", time.Since(start)).
		Msg("database migrations applied")
	return nil
}
