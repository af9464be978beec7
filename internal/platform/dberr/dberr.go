// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/taibuivan/aegis/internal/platform/apperr"
)

// pgUniqueViolation is the Postgres SQLSTATE for a unique-constraint violation.
const pgUniqueViolation = "23505"

// constraintField maps a Postgres unique-constraint name to the request field
// it protects, so DuplicateUser responses can point at the offending input.
var constraintField = map[string]string{
	"accounts_username_key": "username",
	"accounts_email_key":    "email",
	"accounts_phone_key":    "phone",
}

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Unique-constraint violations become DuplicateUser(field)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		field := constraintField[pgErr.ConstraintName]
		if field == "" {
			field = guessFieldFromConstraint(pgErr.ConstraintName)
		}
		return apperr.DuplicateUser(field)
	}

	// 3. Everything else becomes a DatabaseError; the cause is logged, never exposed.
	return apperr.DatabaseError(err)
}

// guessFieldFromConstraint falls back to pattern matching when the constraint
// name isn't in the explicit table above (e.g. a migration renamed it).
func guessFieldFromConstraint(constraint string) string {
	switch {
	case strings.Contains(constraint, "username"):
		return "username"
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "phone"):
		return "phone"
	default:
		return "field"
	}
}
