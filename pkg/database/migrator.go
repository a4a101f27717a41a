package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/OldStager01/throughput-autoscaler/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Migrator struct {
	db *DB
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db}
}

// Run applies every embedded migration in file name order. Migrations are
// written to be idempotent so Run is safe on every start.
func (m *Migrator) Run(ctx context.Context) error {
	files, err := Migrations()
	if err != nil {
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	for _, file := range files {
		if err := m.executeMigration(ctx, file); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}

// JournalTable is the table the migrations create
const JournalTable = "capacity_decisions"

// Verify checks that the journal table exists
func (m *Migrator) Verify(ctx context.Context) error {
	exists, err := m.db.TableExists(ctx, JournalTable)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("table %s is missing, run migrations first", JournalTable)
	}
	return nil
}

// Migrations lists the embedded migration files in apply order
func Migrations() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

func (m *Migrator) executeMigration(ctx context.Context, filename string) error {
	content, err := fs.ReadFile(migrationsFS, "migrations/"+filename)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	logger.Infof("Executing migration: %s", filename)

	if _, err := m.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return nil
}
