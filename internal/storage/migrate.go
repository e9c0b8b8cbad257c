package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// One directory per dialect; both hold the same collections table.
//
//go:embed migrations
var migrations embed.FS

// RunMigrations brings the sqlite schema at dbPath up to date.
func RunMigrations(dbPath string) error {
	// The migrator closes the handle it is given, so it gets its own.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite for migrations: %w", err)
	}
	defer db.Close()

	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	return migrateUp("migrations/sqlite", "sqlite", driver)
}

// RunPostgresMigrations brings the postgres schema at databaseURL up to date.
func RunPostgresMigrations(databaseURL string) error {
	db, err := sql.Open("pgx/v5", databaseURL)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("postgres migration driver: %w", err)
	}
	return migrateUp("migrations/postgres", "pgx5", driver)
}

func migrateUp(dir, dialect string, driver database.Driver) error {
	src, err := iofs.New(migrations, dir)
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", dialect, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("prepare %s migrations: %w", dialect, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}
	return nil
}
