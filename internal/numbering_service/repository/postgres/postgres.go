// Package postgres implements the numbering repositories on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
	"github.com/cschrachta/telephony-tracker/internal/platform/database"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// Migrate creates the numbering tables if they do not exist.
func Migrate(ctx context.Context, db database.Querier, logger *slog.Logger) error {
	return database.Migrate(ctx, db, "numbering", schemaSQL, logger)
}

// Transactor implements domain.Transactor with a read committed pgx transaction carried
// in the context.
type Transactor struct {
	db     database.TxBeginner
	logger *slog.Logger
}

func NewTransactor(db database.TxBeginner, logger *slog.Logger) *Transactor {
	return &Transactor{db: db, logger: logger.With("component", "transactor_pg")}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := database.TxFrom(ctx); ok {
		return fn(ctx)
	}

	var fnErr error
	err := pgx.BeginTxFunc(ctx, t.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		fnErr = fn(database.WithTx(ctx, tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		// Begin or commit failed, including deferred constraint checks.
		t.logger.ErrorContext(ctx, "Transaction failed", "error", err)
		return mapError("transaction", err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s: %s", domain.ErrRepositoryConflict, op, pgErr.Message)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrRepositoryFailure, op, err)
}

// lockClause returns FOR UPDATE when ctx carries a transaction.
func lockClause(ctx context.Context) string {
	if _, ok := database.TxFrom(ctx); ok {
		return " FOR UPDATE"
	}
	return ""
}

type rowScanner interface {
	Scan(dest ...any) error
}
