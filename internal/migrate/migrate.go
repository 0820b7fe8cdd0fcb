// Package migrate applies the numbered *.up.sql files in a directory and
// tracks them in schema_migrations.
package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	dropAllFile      = "000_drop_all.sql"
	consolidatedFile = "000_consolidated.sql"
)

// DB is the subset of *pgxpool.Pool the migrator uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Migrator struct {
	db  DB
	src fs.FS
}

func New(db DB, src fs.FS) *Migrator {
	return &Migrator{db: db, src: src}
}

// upFiles returns the .up.sql file names, sorted.
func (m *Migrator) upFiles() ([]string, error) {
	entries, err := fs.ReadDir(m.src, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) ensureSchemaMigrations(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) execFile(ctx context.Context, name string) error {
	sql, err := fs.ReadFile(m.src, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := m.db.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}

// Up applies every migration not yet recorded and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return 0, err
	}
	files, err := m.upFiles()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, filename := range files {
		name := strings.TrimSuffix(filename, ".up.sql")

		var exists bool
		if err := m.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check %s: %w", name, err)
		}
		if exists {
			continue
		}

		if err := m.execFile(ctx, filename); err != nil {
			return applied, err
		}
		if _, err := m.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return applied, fmt.Errorf("record %s: %w", name, err)
		}
		applied++
		slog.Info("migration completed", "migration", name)
	}

	if applied == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", applied)
	}
	return applied, nil
}

// DropAll runs 000_drop_all.sql.
func (m *Migrator) DropAll(ctx context.Context) error {
	slog.Info("dropping all tables")
	if err := m.execFile(ctx, dropAllFile); err != nil {
		return err
	}
	slog.Info("all tables dropped")
	return nil
}

// Reset drops everything, applies 000_consolidated.sql and marks every
// migration as applied.
func (m *Migrator) Reset(ctx context.Context) error {
	if err := m.DropAll(ctx); err != nil {
		return err
	}
	slog.Info("applying consolidated schema")
	if err := m.execFile(ctx, consolidatedFile); err != nil {
		return err
	}
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	files, err := m.upFiles()
	if err != nil {
		return err
	}
	for _, filename := range files {
		name := strings.TrimSuffix(filename, ".up.sql")
		if _, err := m.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name); err != nil {
			return fmt.Errorf("mark %s: %w", name, err)
		}
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(files))
	return nil
}

// Fresh drops everything and replays all migrations in order.
func (m *Migrator) Fresh(ctx context.Context) (int, error) {
	if err := m.DropAll(ctx); err != nil {
		return 0, err
	}
	return m.Up(ctx)
}
