package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Migrate applies an idempotent schema script. Statements run in one Exec, so the
// script must only use IF NOT EXISTS style DDL.
func Migrate(ctx context.Context, db Querier, name, schema string, logger *slog.Logger) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema %s: %w", name, err)
	}
	logger.InfoContext(ctx, "Database schema applied", "schema", name)
	return nil
}
