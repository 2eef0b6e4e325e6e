package database

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded schema migrations through goose.
type Migrator struct {
	pool *pgxpool.Pool
	out  io.Writer
}

// NewMigrator reports goose progress to out; nil silences it.
func NewMigrator(pool *pgxpool.Pool, out io.Writer) *Migrator {
	return &Migrator{pool: pool, out: out}
}

func (m *Migrator) prepare() error {
	goose.SetBaseFS(migrationsFS)
	if m.out == nil {
		m.out = io.Discard
	}
	goose.SetLogger(log.New(m.out, "", 0))
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	return nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Status prints the applied state of each migration.
func (m *Migrator) Status(ctx context.Context) error {
	if err := m.prepare(); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	if err := goose.StatusContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	return nil
}
