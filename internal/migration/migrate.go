package migration

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
	"github.com/Anereges/AITB-Employee-Management-System/internal/database"
)

// Migrator applies the SQL files under migrations/ with goose.
type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(config *config.DatabaseConfig) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	dir, err := getMigrationsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations directory: %w", err)
	}

	db, err := sql.Open("postgres", database.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{db: db, dir: dir}, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

// DownTo migrates the database down to a specific version
func (m *Migrator) DownTo(ctx context.Context, version int64) error {
	if err := goose.DownToContext(ctx, m.db, m.dir, version); err != nil {
		return fmt.Errorf("failed to migrate down to version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Status(ctx context.Context) error {
	if err := goose.StatusContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

// Version returns the current migration version
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return goose.GetDBVersionContext(ctx, m.db)
}

// LatestVersion returns the latest available migration version
func (m *Migrator) LatestVersion() (int64, error) {
	migrations, err := goose.CollectMigrations(m.dir, 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}
	if len(migrations) == 0 {
		return 0, nil
	}
	return migrations[len(migrations)-1].Version, nil
}

// Reset rolls every migration back and applies them again.
func (m *Migrator) Reset(ctx context.Context) error {
	if err := goose.ResetContext(ctx, m.db, m.dir); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return m.Up(ctx)
}

// Sync brings the schema to the latest version, downgrading when the database is ahead.
func (m *Migrator) Sync(ctx context.Context) (current, latest int64, err error) {
	if current, err = m.Version(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if latest, err = m.LatestVersion(); err != nil {
		return 0, 0, fmt.Errorf("failed to get latest migration version: %w", err)
	}

	switch {
	case current > latest:
		err = m.DownTo(ctx, latest)
	case current < latest:
		err = m.Up(ctx)
	}
	return current, latest, err
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
