package postgres

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmaledger/internal/core/apperror"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// MapError converts constraint violations into AppErrors. Other errors are
// returned unchanged.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		field := strings.TrimPrefix(pgErr.ConstraintName, "uq_"+entity+"_")
		return apperror.NewDuplicate(entity, field, pgErr.Detail).WithCause(err)
	case "23503": // foreign_key_violation
		return apperror.NewConflict(entity+" references a missing record").
			WithDetail("constraint", pgErr.ConstraintName).WithCause(err)
	case "23514": // check_violation
		return apperror.NewValidation(entity+" violates "+pgErr.ConstraintName).WithCause(err)
	}
	return err
}

// OrderBy validates a "field" or "-field" spec against allowed columns.
func OrderBy(spec, def string, allowed ...string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = def
	}
	direction := "ASC"
	field := strings.TrimPrefix(spec, "+")
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(field, "-")
	}
	for _, a := range allowed {
		if a == field {
			return field + " " + direction + ", id " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid order_by").WithDetail("order_by", spec)
}
