// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/uplix/flow/pkg/persistence"
	"github.com/uplix/flow/pkg/persistence/file"
	"github.com/uplix/flow/pkg/persistence/postgresql"
	"github.com/uplix/flow/pkg/persistence/redis"
)

// NewPersistence selects the persistence backend from the database URL
// scheme: postgres://, redis:// or a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return redis.NewPersistence(databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}
