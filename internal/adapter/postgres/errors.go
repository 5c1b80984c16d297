package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// mapError converts pgx/pgconn errors to store and domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func mapError(err error, collection, id string) error {
	if err == nil {
		return nil
	}

	ref := collection
	if id != "" {
		ref = collection + "/" + id
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", ref, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", ref, docstore.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", ref, domain.ErrAlreadyExists)
		case "22P02", "22023": // invalid_text_representation, invalid_parameter_value
			return fmt.Errorf("%s: %w", ref, domain.ErrValidation)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: documents table missing, run migrations: %w", ref, err)
		}
	}

	return fmt.Errorf("%s: %w", ref, err)
}
