package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql
var embeddedMigrations embed.FS

// ErrUnsupportedDialect is returned for stores without a migration set.
var ErrUnsupportedDialect = errors.New("unsupported_migration_dialect")

// RunMigrations applies the reference store schema for dialect.
func RunMigrations(db *sql.DB, dialect string) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, "sql/"+dialect)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := newDriver(db, dialect)
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}

func newDriver(db *sql.DB, dialect string) (database.Driver, error) {
	switch dialect {
	case "mysql":
		return mysql.WithInstance(db, &mysql.Config{})
	case "postgres":
		return postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, ErrUnsupportedDialect
	}
}
