// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/database/schema"
	"github.com/taibuivan/aegis/internal/platform/dberr"
)

// UpsertEmailVerification replaces any outstanding row for the account,
// resetting created_at.
func (s *PostgresStore) UpsertEmailVerification(ctx context.Context, id int, email, token string, expiresAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = now()`,
		schema.EmailVerification.Table,
		schema.EmailVerification.AccountID, schema.EmailVerification.Email, schema.EmailVerification.Token, schema.EmailVerification.ExpiresAt, schema.EmailVerification.CreatedAt,
		schema.EmailVerification.AccountID,
		schema.EmailVerification.Email, schema.EmailVerification.Email,
		schema.EmailVerification.Token, schema.EmailVerification.Token,
		schema.EmailVerification.ExpiresAt, schema.EmailVerification.ExpiresAt,
		schema.EmailVerification.CreatedAt,
	)
	if _, err := s.pool.Exec(ctx, query, id, email, token, expiresAt); err != nil {
		return dberr.Wrap(err, "upsert_email_verification")
	}
	return nil
}

// ConsumeEmailVerification locates a row by token, validates expiry, marks
// the account verified, and deletes the row — all inside one transaction.
func (s *PostgresStore) ConsumeEmailVerification(ctx context.Context, token string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := fmt.Sprintf(`
		SELECT %s, %s FROM %s WHERE %s = $1 FOR UPDATE`,
		schema.EmailVerification.AccountID, schema.EmailVerification.ExpiresAt,
		schema.EmailVerification.Table, schema.EmailVerification.Token,
	)

	var accountID int
	var expiresAt time.Time
	err = tx.QueryRow(ctx, selectQuery, token).Scan(&accountID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, dberr.ErrNotFound
		}
		return 0, dberr.Wrap(err, "select_email_verification")
	}

	if time.Now().UTC().After(expiresAt) {
		return 0, ErrVerificationExpired
	}

	markVerified := fmt.Sprintf("UPDATE %s SET %s = true WHERE %s = $1",
		schema.Account.Table, schema.Account.EmailVerified, schema.Account.ID)
	if _, err := tx.Exec(ctx, markVerified, accountID); err != nil {
		return 0, dberr.Wrap(err, "mark_email_verified")
	}

	deleteRow := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.EmailVerification.Table, schema.EmailVerification.AccountID)
	if _, err := tx.Exec(ctx, deleteRow, accountID); err != nil {
		return 0, dberr.Wrap(err, "delete_email_verification")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("identity: commit transaction: %w", err)
	}
	return accountID, nil
}

// UpsertPhoneVerification replaces any outstanding row, resetting attempts to 0.
func (s *PostgresStore) UpsertPhoneVerification(ctx context.Context, id int, phone, code string, expiresAt time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, 0, $4, now())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = 0, %s = EXCLUDED.%s, %s = now()`,
		schema.PhoneVerification.Table,
		schema.PhoneVerification.AccountID, schema.PhoneVerification.Phone, schema.PhoneVerification.Code, schema.PhoneVerification.Attempts, schema.PhoneVerification.ExpiresAt, schema.PhoneVerification.CreatedAt,
		schema.PhoneVerification.AccountID,
		schema.PhoneVerification.Phone, schema.PhoneVerification.Phone,
		schema.PhoneVerification.Code, schema.PhoneVerification.Code,
		schema.PhoneVerification.Attempts,
		schema.PhoneVerification.ExpiresAt, schema.PhoneVerification.ExpiresAt,
		schema.PhoneVerification.CreatedAt,
	)
	if _, err := s.pool.Exec(ctx, query, id, phone, code, expiresAt); err != nil {
		return dberr.Wrap(err, "upsert_phone_verification")
	}
	return nil
}

// ConsumePhoneVerification implements the phone-verify state machine
// (Absent → Expired → Locked → code compare) with the attempt counter
// incremented atomically under a row lock, per the concurrency note in §4.5.5.
func (s *PostgresStore) ConsumePhoneVerification(ctx context.Context, id int, submittedCode string) (PhoneVerifyOutcome, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return PhoneVerifyAbsent, 0, fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	selectQuery := fmt.Sprintf(`
		SELECT %s, %s, %s FROM %s WHERE %s = $1 FOR UPDATE`,
		schema.PhoneVerification.Code, schema.PhoneVerification.Attempts, schema.PhoneVerification.ExpiresAt,
		schema.PhoneVerification.Table, schema.PhoneVerification.AccountID,
	)

	var storedCode string
	var attempts int
	var expiresAt time.Time
	err = tx.QueryRow(ctx, selectQuery, id).Scan(&storedCode, &attempts, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PhoneVerifyAbsent, 0, nil
		}
		return PhoneVerifyAbsent, 0, dberr.Wrap(err, "select_phone_verification")
	}

	if time.Now().UTC().After(expiresAt) {
		return PhoneVerifyExpired, attempts, nil
	}
	if attempts >= constants.MaxPhoneVerificationAttempts {
		return PhoneVerifyTooManyAttempts, attempts, nil
	}

	codeMatches := len(submittedCode) == len(storedCode) &&
		subtle.ConstantTimeCompare([]byte(submittedCode), []byte(storedCode)) == 1
	if codeMatches {
		markVerified := fmt.Sprintf("UPDATE %s SET %s = true WHERE %s = $1",
			schema.Account.Table, schema.Account.PhoneVerified, schema.Account.ID)
		if _, err := tx.Exec(ctx, markVerified, id); err != nil {
			return PhoneVerifyAbsent, 0, dberr.Wrap(err, "mark_phone_verified")
		}

		deleteRow := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", schema.PhoneVerification.Table, schema.PhoneVerification.AccountID)
		if _, err := tx.Exec(ctx, deleteRow, id); err != nil {
			return PhoneVerifyAbsent, 0, dberr.Wrap(err, "delete_phone_verification")
		}

		if err := tx.Commit(ctx); err != nil {
			return PhoneVerifyAbsent, 0, fmt.Errorf("identity: commit transaction: %w", err)
		}
		return PhoneVerifySuccess, attempts, nil
	}

	incrementQuery := fmt.Sprintf(`
		UPDATE %s SET %s = %s + 1 WHERE %s = $1 RETURNING %s`,
		schema.PhoneVerification.Table, schema.PhoneVerification.Attempts, schema.PhoneVerification.Attempts,
		schema.PhoneVerification.AccountID, schema.PhoneVerification.Attempts,
	)
	var newAttempts int
	if err := tx.QueryRow(ctx, incrementQuery, id).Scan(&newAttempts); err != nil {
		return PhoneVerifyAbsent, 0, dberr.Wrap(err, "increment_phone_attempts")
	}

	if err := tx.Commit(ctx); err != nil {
		return PhoneVerifyAbsent, 0, fmt.Errorf("identity: commit transaction: %w", err)
	}

	if newAttempts >= constants.MaxPhoneVerificationAttempts {
		return PhoneVerifyTooManyAttempts, newAttempts, nil
	}
	return PhoneVerifyWrongCode, newAttempts, nil
}

// ErrVerificationExpired is returned by ConsumeEmailVerification when the
// located row's expires_at has already passed.
var ErrVerificationExpired = errors.New("identity: verification token expired")
