// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/notify"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCredentialService(store identity.Store, mailer notify.Mailer, limiter identity.RateLimiter) *identity.CredentialService {
	tokens, err := sec.NewTokenService("test-secret", "aegis.test")
	if err != nil {
		panic(err)
	}
	return identity.NewCredentialService(store, tokens, mailer, notify.SystemClock{}, limiter, sec.AlgoArgon2id, "https://aegis.test", testLogger())
}

func TestCredentialService_Register(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})

	result, err := svc.Register(context.Background(), identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, "ada@aegis.test", result.User.Email)
	assert.Equal(t, sec.RoleUser.Label(), result.User.Role)
	assert.Equal(t, string(identity.StatusPending), result.User.Status)
}

func TestCredentialService_Register_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})
	ctx := context.Background()

	_, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, identity.RegisterInput{
		FirstName: "Eve", LastName: "Other", Username: "eve", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550002222",
	})

	require.Error(t, err)
	assert.Equal(t, "DuplicateUser", apperr.Code(err))
}

func TestCredentialService_Login_WrongPassword(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})
	ctx := context.Background()

	_, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@aegis.test", "wrong-password")

	require.Error(t, err)
	assert.Equal(t, "InvalidCredentials", apperr.Code(err))
}

func TestCredentialService_Login_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})

	_, err := svc.Login(context.Background(), "nobody@aegis.test", "whatever")

	require.Error(t, err)
	assert.Equal(t, "InvalidCredentials", apperr.Code(err))
}

func TestCredentialService_Login_SuspendedAccount(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})
	ctx := context.Background()

	result, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	suspended := identity.StatusSuspended
	require.NoError(t, store.UpdateAccountFields(ctx, result.User.ID, identity.AccountPatch{Status: &suspended}))

	_, err = svc.Login(ctx, "ada@aegis.test", "correcthorsebatterystaple")

	require.Error(t, err)
	assert.Equal(t, "AccountSuspended", apperr.Code(err))
}

func TestCredentialService_ChangePassword_RejectsSameNewPassword(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})
	ctx := context.Background()

	result, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, result.User.ID, "correcthorsebatterystaple", "correcthorsebatterystaple")

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.Code(err))
}

func TestCredentialService_ChangePassword_WrongOldPassword(t *testing.T) {
	store := newFakeStore()
	svc := newCredentialService(store, &fakeMailer{}, &fakeLimiter{})
	ctx := context.Background()

	result, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, result.User.ID, "not-the-old-password", "a-brand-new-password")

	require.Error(t, err)
	assert.Equal(t, "InvalidCredentials", apperr.Code(err))
}

func TestCredentialService_RequestPasswordReset_RateLimited(t *testing.T) {
	store := newFakeStore()
	limiter := &fakeLimiter{deny: true, retryAt: 42}
	svc := newCredentialService(store, &fakeMailer{}, limiter)

	err := svc.RequestPasswordReset(context.Background(), "ada@aegis.test")

	require.Error(t, err)
	assert.Equal(t, "RATE_LIMITED", apperr.Code(err))
}

func TestCredentialService_RequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := newCredentialService(store, mailer, &fakeLimiter{})

	err := svc.RequestPasswordReset(context.Background(), "nobody@aegis.test")

	require.NoError(t, err)
	assert.Equal(t, 0, mailer.resetsSent)
}

func TestCredentialService_RequestPasswordReset_SendsMailForVerifiedAccount(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := newCredentialService(store, mailer, &fakeLimiter{})
	ctx := context.Background()

	result, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	verified := true
	require.NoError(t, store.UpdateAccountFields(ctx, result.User.ID, identity.AccountPatch{EmailVerified: &verified}))

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@aegis.test"))
	assert.Equal(t, 1, mailer.resetsSent)
}

func TestCredentialService_ConsumePasswordReset(t *testing.T) {
	store := newFakeStore()
	tokens, err := sec.NewTokenService("test-secret", "aegis.test")
	require.NoError(t, err)
	svc := identity.NewCredentialService(store, tokens, &fakeMailer{}, notify.SystemClock{}, &fakeLimiter{}, sec.AlgoArgon2id, "https://aegis.test", testLogger())
	ctx := context.Background()

	result, err := svc.Register(ctx, identity.RegisterInput{
		FirstName: "Ada", LastName: "Lovelace", Username: "ada", Email: "ada@aegis.test",
		Password: "correcthorsebatterystaple", Phone: "+15550001111",
	})
	require.NoError(t, err)

	expiredToken, err := tokens.IssueReset(result.User.ID, "ada@aegis.test", -time.Minute)
	require.NoError(t, err)
	err = svc.ConsumePasswordReset(ctx, expiredToken, "a-brand-new-password")
	require.Error(t, err)
	assert.Equal(t, "TokenExpired", apperr.Code(err))

	validToken, err := tokens.IssueReset(result.User.ID, "ada@aegis.test", 15*time.Minute)
	require.NoError(t, err)
	require.NoError(t, svc.ConsumePasswordReset(ctx, validToken, "a-brand-new-password"))

	_, err = svc.Login(ctx, "ada@aegis.test", "a-brand-new-password")
	require.NoError(t, err)
}
