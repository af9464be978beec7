// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/notify"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

func newVerificationService(store identity.Store, mailer notify.Mailer, sms notify.SMSGateway, clock notify.Clock, limiter identity.RateLimiter) *identity.VerificationService {
	return identity.NewVerificationService(store, mailer, sms, clock, limiter, "https://aegis.test", "test-carrier", testLogger())
}

func TestVerificationService_SendEmailVerification_RejectsAlreadyVerified(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusPending)
	verified := true
	require.NoError(t, store.UpdateAccountFields(context.Background(), account.ID, identity.AccountPatch{EmailVerified: &verified}))

	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})

	err := svc.SendEmailVerification(context.Background(), account.ID)

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.Code(err))
}

func TestVerificationService_SendEmailVerification_RateLimited(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusPending)
	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{deny: true, retryAt: 120})

	err := svc.SendEmailVerification(context.Background(), account.ID)

	require.Error(t, err)
	assert.Equal(t, "RATE_LIMITED", apperr.Code(err))
}

func TestVerificationService_SendEmailVerification_DeliveryFailure(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusPending)
	mailer := &fakeMailer{failDelivery: true}
	svc := newVerificationService(store, mailer, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})

	err := svc.SendEmailVerification(context.Background(), account.ID)

	require.Error(t, err)
	assert.Equal(t, "DeliveryFailed", apperr.Code(err))
}

func TestVerificationService_ConfirmEmailVerification_ActivatesPendingAccount(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusPending)
	clock := &fixedClock{now: time.Now().UTC()}
	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, clock, &fakeLimiter{})
	ctx := context.Background()

	require.NoError(t, svc.SendEmailVerification(ctx, account.ID))

	var token string
	for tok, row := range store.emailTokens {
		if row.AccountID == account.ID {
			token = tok
		}
	}
	require.NotEmpty(t, token)

	require.NoError(t, svc.ConfirmEmailVerification(ctx, token))

	updated, _, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)
	assert.Equal(t, identity.StatusActive, updated.Status)
}

func TestVerificationService_ConfirmEmailVerification_ExpiredToken(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusPending)
	ctx := context.Background()

	require.NoError(t, store.UpsertEmailVerification(ctx, account.ID, account.Email, "expired-token", time.Now().UTC().Add(-time.Hour)))

	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})
	err := svc.ConfirmEmailVerification(ctx, "expired-token")

	require.Error(t, err)
	assert.Equal(t, "Expired", apperr.Code(err))
}

func TestVerificationService_ConfirmPhoneVerification_WrongCode(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	ctx := context.Background()

	require.NoError(t, store.UpsertPhoneVerification(ctx, account.ID, account.Phone, "123456", time.Now().UTC().Add(time.Hour)))

	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})
	err := svc.ConfirmPhoneVerification(ctx, account.ID, "000000")

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.Code(err))
	appErr := apperr.As(err)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "2 attempts remaining", appErr.Details[0].Message)
}

func TestVerificationService_ConfirmPhoneVerification_TooManyAttempts(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	ctx := context.Background()

	require.NoError(t, store.UpsertPhoneVerification(ctx, account.ID, account.Phone, "123456", time.Now().UTC().Add(time.Hour)))

	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})
	for i := 0; i < 3; i++ {
		_ = svc.ConfirmPhoneVerification(ctx, account.ID, "000000")
	}

	err := svc.ConfirmPhoneVerification(ctx, account.ID, "123456")

	require.Error(t, err)
	assert.Equal(t, "TooManyAttempts", apperr.Code(err))
}

func TestVerificationService_ConfirmPhoneVerification_Success(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	ctx := context.Background()
	sms := &fakeSMS{}
	svc := newVerificationService(store, &fakeMailer{}, sms, notify.SystemClock{}, &fakeLimiter{})

	require.NoError(t, svc.SendPhoneVerification(ctx, account.ID))
	assert.Equal(t, 1, sms.sent)

	code := store.phoneCodes[account.ID].Code
	require.NoError(t, svc.ConfirmPhoneVerification(ctx, account.ID, code))

	updated, _, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, updated.PhoneVerified)
}

func TestVerificationService_ConfirmPhoneVerification_AbsentRequest(t *testing.T) {
	store := newFakeStore()
	account := seedAccount(t, store, sec.RoleUser, identity.StatusActive)
	svc := newVerificationService(store, &fakeMailer{}, &fakeSMS{}, notify.SystemClock{}, &fakeLimiter{})

	err := svc.ConfirmPhoneVerification(context.Background(), account.ID, "000000")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.Code(err))
}
