// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/notify"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// RateLimiter is the narrow slice of redis.Limiter the credential/verification
// services depend on, so tests can inject an in-memory fake.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// CredentialService implements registration, login, password change, and
// password reset (C4 in the design).
type CredentialService struct {
	store   Store
	tokens  *sec.TokenService
	mailer  notify.Mailer
	clock   notify.Clock
	limiter RateLimiter
	algo    sec.HashAlgo
	baseURL string
	logger  *slog.Logger
}

// NewCredentialService wires the credential engine's collaborators.
func NewCredentialService(store Store, tokens *sec.TokenService, mailer notify.Mailer, clock notify.Clock, limiter RateLimiter, algo sec.HashAlgo, baseURL string, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		store: store, tokens: tokens, mailer: mailer, clock: clock,
		limiter: limiter, algo: algo, baseURL: baseURL, logger: logger,
	}
}

// RegisterInput carries the body of POST /auth/register. Role is
// intentionally absent — registration always mints User(1).
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Phone     string
}

// AuthResult pairs an issued access token with the account's client view.
type AuthResult struct {
	AccessToken string
	User        AccountView
}

// Register creates a new account with role hard-wired to User(1) and status
// pending, and returns a fresh access token.
func (s *CredentialService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	salt, err := sec.NewSalt()
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}
	digest, algo, err := sec.HashPassword(input.Password, salt, s.algo)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	id, err := s.store.CreateAccountWithCredential(ctx, NewAccountInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      sec.RoleUser,
		Status:    StatusPending,
	}, salt, digest, algo)
	if err != nil {
		return AuthResult{}, err
	}

	account, _, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.IssueAccess(account.ID, account.Email, int(account.Role), constants.AccessTokenTTL)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{AccessToken: token, User: account.ToView()}, nil
}

// Login authenticates by email/password. Account enumeration is resisted by
// performing a dummy hash computation when the account is missing, and by
// using an identical error message for every failure mode.
func (s *CredentialService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	account, credential, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		sec.DummyHash(password)
		return AuthResult{}, apperr.InvalidCredentials()
	}

	switch account.Status {
	case StatusSuspended:
		return AuthResult{}, apperr.AccountSuspended()
	case StatusLocked:
		return AuthResult{}, apperr.AccountLocked()
	case StatusDeleted:
		return AuthResult{}, apperr.AccountSuspended()
	}

	if !sec.VerifyHash(password, credential.Salt, credential.Digest, credential.Algo) {
		return AuthResult{}, apperr.InvalidCredentials()
	}

	// Best-effort hash upgrade: if the account's stored algo lags the
	// configured default, re-hash under the new default. Never blocks login.
	if credential.Algo != s.algo {
		if newSalt, err := sec.NewSalt(); err == nil {
			if newDigest, newAlgo, err := sec.HashPassword(password, newSalt, s.algo); err == nil {
				if err := s.store.SetCredential(ctx, account.ID, newSalt, newDigest, newAlgo); err != nil {
					s.logger.WarnContext(ctx, "password_hash_upgrade_failed", slog.Int("account_id", account.ID), slog.Any("error", err))
				}
			}
		}
	}

	token, err := s.tokens.IssueAccess(account.ID, account.Email, int(account.Role), constants.AccessTokenTTL)
	if err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{AccessToken: token, User: account.ToView()}, nil
}

// ChangePassword verifies the caller's current password before installing a
// new one. Existing access tokens remain valid until expiry; this is an
// accepted limitation (no refresh/session revocation in scope).
func (s *CredentialService) ChangePassword(ctx context.Context, accountID int, oldPassword, newPassword string) error {
	_, credential, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !sec.VerifyHash(oldPassword, credential.Salt, credential.Digest, credential.Algo) {
		return apperr.InvalidCredentials()
	}
	if sec.VerifyHash(newPassword, credential.Salt, credential.Digest, credential.Algo) {
		return apperr.ValidationError("New password must differ from the current password")
	}

	newSalt, err := sec.NewSalt()
	if err != nil {
		return apperr.Internal(err)
	}
	newDigest, newAlgo, err := sec.HashPassword(newPassword, newSalt, s.algo)
	if err != nil {
		return apperr.Internal(err)
	}

	return s.store.SetCredential(ctx, accountID, newSalt, newDigest, newAlgo)
}

// RequestPasswordReset always succeeds from the caller's point of view; it
// only actually sends mail when the account exists and its email is
// verified, and is rate-limited to one request per 5 minutes per email.
func (s *CredentialService) RequestPasswordReset(ctx context.Context, email string) error {
	key := constants.RedisPrefixResetRequest + email
	allowed, retryAfter, err := s.limiter.Allow(ctx, key, 1, constants.PasswordResetRequestWindow)
	if err != nil {
		return apperr.Internal(err)
	}
	if !allowed {
		return apperr.RateLimited(retryAfter)
	}

	account, _, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil || !account.EmailVerified {
		return nil
	}

	token, err := s.tokens.IssueReset(account.ID, account.Email, constants.PasswordResetTokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue_reset_token_failed", slog.Any("error", err))
		return nil
	}

	resetURL := fmt.Sprintf("%s/auth/password/reset?token=%s", s.baseURL, token)
	if err := s.mailer.SendPasswordReset(ctx, account.Email, account.FirstName, resetURL); err != nil {
		s.logger.ErrorContext(ctx, "send_password_reset_failed", slog.Int("account_id", account.ID), slog.Any("error", err))
	}

	return nil
}

// ConsumePasswordReset validates the reset token and installs a new password.
func (s *CredentialService) ConsumePasswordReset(ctx context.Context, token, newPassword string) error {
	id, _, err := s.tokens.VerifyReset(token)
	if err != nil {
		return mapTokenError(err)
	}

	if _, _, err := s.store.GetAccountByID(ctx, id); err != nil {
		return err
	}

	newSalt, err := sec.NewSalt()
	if err != nil {
		return apperr.Internal(err)
	}
	newDigest, newAlgo, err := sec.HashPassword(newPassword, newSalt, s.algo)
	if err != nil {
		return apperr.Internal(err)
	}

	return s.store.SetCredential(ctx, id, newSalt, newDigest, newAlgo)
}

// mapTokenError translates a sec token error into the apperr taxonomy.
func mapTokenError(err error) error {
	switch err {
	case sec.ErrTokenExpired:
		return apperr.TokenExpired(400)
	case sec.ErrTokenWrongType:
		return apperr.TokenWrongType()
	default:
		return apperr.TokenInvalid(400)
	}
}
