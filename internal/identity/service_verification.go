// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/notify"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// VerificationService implements email and phone confirmation (C5 in the
// design): sending a verification artifact and consuming it.
type VerificationService struct {
	store      Store
	mailer     notify.Mailer
	sms        notify.SMSGateway
	clock      notify.Clock
	limiter    RateLimiter
	baseURL    string
	smsCarrier string
	logger     *slog.Logger
}

// NewVerificationService wires the verification engine's collaborators.
func NewVerificationService(store Store, mailer notify.Mailer, sms notify.SMSGateway, clock notify.Clock, limiter RateLimiter, baseURL, smsCarrier string, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		store: store, mailer: mailer, sms: sms, clock: clock,
		limiter: limiter, baseURL: baseURL, smsCarrier: smsCarrier, logger: logger,
	}
}

// SendEmailVerification issues a fresh opaque token, replacing any
// outstanding one, and mails it. Rate-limited to one resend per 5 minutes
// per account.
func (s *VerificationService) SendEmailVerification(ctx context.Context, accountID int) error {
	account, _, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return apperr.ValidationError("Email is already verified")
	}

	key := fmt.Sprintf("%s%d", constants.RedisPrefixEmailResend, accountID)
	allowed, retryAfter, err := s.limiter.Allow(ctx, key, 1, constants.EmailVerificationResendWindow)
	if err != nil {
		return apperr.Internal(err)
	}
	if !allowed {
		return apperr.RateLimited(retryAfter)
	}

	token, err := sec.NewOpaqueToken()
	if err != nil {
		return apperr.Internal(err)
	}

	expiresAt := s.clock.Now().Add(constants.EmailVerificationRowTTL)
	if err := s.store.UpsertEmailVerification(ctx, accountID, account.Email, token, expiresAt); err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/auth/verify/email/confirm?token=%s", s.baseURL, token)
	if err := s.mailer.SendVerification(ctx, account.Email, account.FirstName, verifyURL); err != nil {
		s.logger.ErrorContext(ctx, "send_email_verification_failed", slog.Int("account_id", accountID), slog.Any("error", err))
		return apperr.DeliveryFailed("Could not send verification email")
	}

	return nil
}

// ConfirmEmailVerification consumes the token and marks the account's email
// verified, if status-eligible to do so.
func (s *VerificationService) ConfirmEmailVerification(ctx context.Context, token string) error {
	accountID, err := s.store.ConsumeEmailVerification(ctx, token)
	if err != nil {
		if err == ErrVerificationExpired {
			return apperr.Expired("Verification link has expired. Request a new one.")
		}
		return err
	}

	account, _, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.Status == StatusPending {
		active := StatusActive
		if err := s.store.UpdateAccountFields(ctx, accountID, AccountPatch{Status: &active}); err != nil {
			return err
		}
	}

	return nil
}

// SendPhoneVerification issues a fresh 6-digit code, replacing any
// outstanding one, and sends it by SMS. Rate-limited to one send per minute
// per account.
func (s *VerificationService) SendPhoneVerification(ctx context.Context, accountID int) error {
	account, _, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.PhoneVerified {
		return apperr.ValidationError("Phone is already verified")
	}

	key := fmt.Sprintf("%s%d", constants.RedisPrefixPhoneSend, accountID)
	allowed, retryAfter, err := s.limiter.Allow(ctx, key, 1, constants.PhoneCodeSendWindow)
	if err != nil {
		return apperr.Internal(err)
	}
	if !allowed {
		return apperr.RateLimited(retryAfter)
	}

	code, err := sec.NewNumericCode()
	if err != nil {
		return apperr.Internal(err)
	}

	expiresAt := s.clock.Now().Add(constants.PhoneVerificationRowTTL)
	if err := s.store.UpsertPhoneVerification(ctx, accountID, account.Phone, code, expiresAt); err != nil {
		return err
	}

	message := fmt.Sprintf("Your Aegis verification code is %s. It expires in 15 minutes.", code)
	if err := s.sms.Send(ctx, account.Phone, s.smsCarrier, message); err != nil {
		s.logger.ErrorContext(ctx, "send_phone_verification_failed", slog.Int("account_id", accountID), slog.Any("error", err))
		return apperr.DeliveryFailed("Could not send verification SMS")
	}

	return nil
}

// ConfirmPhoneVerification submits a code against the account's outstanding
// row and translates the resulting state-machine outcome into an error, or
// nil on success.
func (s *VerificationService) ConfirmPhoneVerification(ctx context.Context, accountID int, code string) error {
	outcome, attempts, err := s.store.ConsumePhoneVerification(ctx, accountID, code)
	if err != nil {
		return err
	}

	switch outcome {
	case PhoneVerifySuccess:
		return nil
	case PhoneVerifyAbsent:
		return apperr.NotFound("Phone verification request")
	case PhoneVerifyExpired:
		return apperr.Expired("Verification code has expired. Request a new one.")
	case PhoneVerifyTooManyAttempts:
		return apperr.TooManyAttempts()
	case PhoneVerifyWrongCode:
		remaining := constants.MaxPhoneVerificationAttempts - attempts
		return apperr.ValidationError("Incorrect verification code", apperr.FieldError{
			Field:   "code",
			Message: fmt.Sprintf("%d attempts remaining", remaining),
		})
	default:
		return apperr.Internal(fmt.Errorf("identity: unhandled phone verify outcome %d", outcome))
	}
}
