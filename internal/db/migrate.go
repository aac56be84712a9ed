package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationConfig holds configuration for database migrations
type MigrationConfig struct {
	DatabaseName string
	SchemaName   string
	// Path loads migrations from a directory instead of the embedded set
	Path string
}

func (c *MigrationConfig) applyDefaults() {
	if c.DatabaseName == "" {
		c.DatabaseName = "profiles"
	}
	if c.SchemaName == "" {
		c.SchemaName = "public"
	}
}

// Migrator handles database migrations
type Migrator struct {
	db     *sql.DB
	config MigrationConfig
}

// NewMigrator creates a new Migrator instance
func NewMigrator(db *sql.DB, config MigrationConfig) *Migrator {
	config.applyDefaults()
	return &Migrator{
		db:     db,
		config: config,
	}
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.run("run migrations", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.run("roll back migrations", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Steps runs N migrations (positive for up, negative for down)
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return fmt.Errorf("steps must be non-zero")
	}
	return m.run("run migration steps", func(mg *migrate.Migrate) error { return mg.Steps(n) })
}

// Force sets the recorded version without running migrations and clears the dirty flag
func (m *Migrator) Force(version int) error {
	return m.run("force migration version", func(mg *migrate.Migrate) error { return mg.Force(version) })
}

// Version returns the current migration version
func (m *Migrator) Version() (uint, bool, error) {
	mg, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) run(action string, fn func(*migrate.Migrate) error) error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	defer mg.Close()

	if err := fn(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	dbDriver, err := postgres.WithInstance(m.db, &postgres.Config{
		DatabaseName: m.config.DatabaseName,
		SchemaName:   m.config.SchemaName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	var mg *migrate.Migrate
	if m.config.Path != "" {
		mg, err = migrate.NewWithDatabaseInstance("file://"+m.config.Path, m.config.DatabaseName, dbDriver)
	} else {
		var sourceDriver source.Driver
		sourceDriver, err = EmbeddedSource()
		if err != nil {
			return nil, err
		}
		mg, err = migrate.NewWithInstance("iofs", sourceDriver, m.config.DatabaseName, dbDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return mg, nil
}

// EmbeddedSource returns the migrations compiled into the binary
func EmbeddedSource() (source.Driver, error) {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	return d, nil
}
