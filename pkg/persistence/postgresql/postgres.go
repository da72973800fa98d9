// Package postgresql provides PostgreSQL persistence for workspaces and
// scheduled posts. Graphs are stored as JSONB documents.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	workspaceRepo *WorkspaceRepository
	postRepo      *ScheduledPostRepository
}

// NewPersistence connects to the database, runs pending migrations and
// returns the persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:            database,
		logger:        logger,
		workspaceRepo: &WorkspaceRepository{db: database},
		postRepo:      &ScheduledPostRepository{db: database},
	}, nil
}

// WorkspaceRepository returns the workspace repository.
func (p *Persistence) WorkspaceRepository() persistence.WorkspaceRepository {
	return p.workspaceRepo
}

// ScheduledPostRepository returns the scheduled post repository.
func (p *Persistence) ScheduledPostRepository() persistence.ScheduledPostRepository {
	return p.postRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
