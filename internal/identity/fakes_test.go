// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/aegis/internal/identity"
	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/dberr"
	"github.com/taibuivan/aegis/internal/platform/sec"
)

// fakeStore is an in-memory [identity.Store] used across the package's unit
// tests. It keeps just enough state to exercise the service layer without a
// real Postgres instance.
type fakeStore struct {
	mu          sync.Mutex
	nextID      int
	accounts    map[int]identity.Account
	credentials map[int]identity.Credential
	emailTokens map[string]identity.EmailVerification
	phoneCodes  map[int]identity.PhoneVerification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:      1,
		accounts:    map[int]identity.Account{},
		credentials: map[int]identity.Credential{},
		emailTokens: map[string]identity.EmailVerification{},
		phoneCodes:  map[int]identity.PhoneVerification{},
	}
}

func (f *fakeStore) CreateAccountWithCredential(_ context.Context, input identity.NewAccountInput, salt, digest string, algo sec.HashAlgo) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Email == input.Email {
			return 0, apperr.DuplicateUser("email")
		}
		if a.Username == input.Username {
			return 0, apperr.DuplicateUser("username")
		}
	}

	id := f.nextID
	f.nextID++
	now := time.Now().UTC()
	f.accounts[id] = identity.Account{
		ID: id, FirstName: input.FirstName, LastName: input.LastName,
		Username: input.Username, Email: input.Email, Phone: input.Phone,
		Role: input.Role, Status: input.Status, CreatedAt: now, UpdatedAt: now,
	}
	f.credentials[id] = identity.Credential{AccountID: id, Salt: salt, Digest: digest, Algo: algo, UpdatedAt: now}
	return id, nil
}

func (f *fakeStore) GetAccountByEmail(_ context.Context, email string) (identity.Account, identity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.accounts {
		if a.Email == email {
			return a, f.credentials[id], nil
		}
	}
	return identity.Account{}, identity.Credential{}, dberr.ErrNotFound
}

func (f *fakeStore) GetAccountByID(_ context.Context, id int) (identity.Account, identity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return identity.Account{}, identity.Credential{}, dberr.ErrNotFound
	}
	return a, f.credentials[id], nil
}

func (f *fakeStore) UpdateAccountFields(_ context.Context, id int, patch identity.AccountPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return dberr.ErrNotFound
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.EmailVerified != nil {
		a.EmailVerified = *patch.EmailVerified
	}
	if patch.PhoneVerified != nil {
		a.PhoneVerified = *patch.PhoneVerified
	}
	a.UpdatedAt = time.Now().UTC()
	f.accounts[id] = a
	return nil
}

func (f *fakeStore) UpdateRole(_ context.Context, id int, newRole sec.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return dberr.ErrNotFound
	}
	a.Role = newRole
	f.accounts[id] = a
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return dberr.ErrNotFound
	}
	a.Status = identity.StatusDeleted
	f.accounts[id] = a
	return nil
}

func (f *fakeStore) SetCredential(_ context.Context, id int, salt, digest string, algo sec.HashAlgo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return dberr.ErrNotFound
	}
	f.credentials[id] = identity.Credential{AccountID: id, Salt: salt, Digest: digest, Algo: algo, UpdatedAt: time.Now().UTC()}
	return nil
}

func (f *fakeStore) UpsertEmailVerification(_ context.Context, id int, email, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailTokens[token] = identity.EmailVerification{AccountID: id, Email: email, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
	return nil
}

func (f *fakeStore) ConsumeEmailVerification(_ context.Context, token string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.emailTokens[token]
	if !ok {
		return 0, dberr.ErrNotFound
	}
	delete(f.emailTokens, token)
	if time.Now().UTC().After(row.ExpiresAt) {
		return 0, identity.ErrVerificationExpired
	}
	a := f.accounts[row.AccountID]
	a.EmailVerified = true
	f.accounts[row.AccountID] = a
	return row.AccountID, nil
}

func (f *fakeStore) UpsertPhoneVerification(_ context.Context, id int, phone, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phoneCodes[id] = identity.PhoneVerification{AccountID: id, Phone: phone, Code: code, Attempts: 0, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()}
	return nil
}

func (f *fakeStore) ConsumePhoneVerification(_ context.Context, id int, submittedCode string) (identity.PhoneVerifyOutcome, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.phoneCodes[id]
	if !ok {
		return identity.PhoneVerifyAbsent, 0, nil
	}
	if time.Now().UTC().After(row.ExpiresAt) {
		return identity.PhoneVerifyExpired, row.Attempts, nil
	}
	if row.Attempts >= 3 {
		return identity.PhoneVerifyTooManyAttempts, row.Attempts, nil
	}
	if row.Code == submittedCode {
		delete(f.phoneCodes, id)
		a := f.accounts[id]
		a.PhoneVerified = true
		f.accounts[id] = a
		return identity.PhoneVerifySuccess, row.Attempts, nil
	}
	row.Attempts++
	f.phoneCodes[id] = row
	if row.Attempts >= 3 {
		return identity.PhoneVerifyTooManyAttempts, row.Attempts, nil
	}
	return identity.PhoneVerifyWrongCode, row.Attempts, nil
}

func (f *fakeStore) ListAccounts(_ context.Context, filter identity.AccountFilter, page, limit int) ([]identity.Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []identity.Account
	for _, a := range f.accounts {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && a.Role != *filter.Role {
			continue
		}
		matched = append(matched, a)
	}
	return paginate(matched, page, limit), len(matched), nil
}

func (f *fakeStore) SearchAccounts(_ context.Context, query string, fields []string, page, limit int) ([]identity.Account, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var matched []identity.Account
	for _, a := range f.accounts {
		if accountMatchesQuery(a, q, fields) {
			matched = append(matched, a)
		}
	}
	return paginate(matched, page, limit), len(matched), nil
}

func accountMatchesQuery(a identity.Account, q string, fields []string) bool {
	for _, field := range fields {
		switch field {
		case identity.SearchFieldFirstName:
			if strings.Contains(strings.ToLower(a.FirstName), q) {
				return true
			}
		case identity.SearchFieldLastName:
			if strings.Contains(strings.ToLower(a.LastName), q) {
				return true
			}
		case identity.SearchFieldUsername:
			if strings.Contains(strings.ToLower(a.Username), q) {
				return true
			}
		case identity.SearchFieldEmail:
			if strings.Contains(strings.ToLower(a.Email), q) {
				return true
			}
		}
	}
	return false
}

func paginate(accounts []identity.Account, page, limit int) []identity.Account {
	start := (page - 1) * limit
	if start >= len(accounts) {
		return nil
	}
	end := start + limit
	if end > len(accounts) {
		end = len(accounts)
	}
	return accounts[start:end]
}

func (f *fakeStore) DashboardCounts(_ context.Context) (identity.DashboardStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := identity.DashboardStats{ByStatus: map[string]int{}, ByRole: map[string]int{}}
	for _, a := range f.accounts {
		stats.Total++
		stats.ByStatus[string(a.Status)]++
		stats.ByRole[a.Role.String()]++
	}
	return stats, nil
}

// fakeLimiter is an in-memory [identity.RateLimiter] that allows every call
// unless primed to reject it.
type fakeLimiter struct {
	mu      sync.Mutex
	deny    bool
	retryAt int
}

func (l *fakeLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.deny {
		return false, l.retryAt, nil
	}
	return true, 0, nil
}

// fakeMailer records every call instead of sending mail.
type fakeMailer struct {
	mu                sync.Mutex
	verificationsSent int
	resetsSent        int
	failDelivery      bool
}

func (m *fakeMailer) SendVerification(_ context.Context, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelivery {
		return errDeliveryFailed
	}
	m.verificationsSent++
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelivery {
		return errDeliveryFailed
	}
	m.resetsSent++
	return nil
}

var errDeliveryFailed = &deliveryError{}

type deliveryError struct{}

func (*deliveryError) Error() string { return "delivery failed" }

// fakeSMS records every call instead of sending an SMS.
type fakeSMS struct {
	mu   sync.Mutex
	sent int
}

func (s *fakeSMS) Send(_ context.Context, _, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	return nil
}

// fixedClock returns a constant instant, advanced manually between assertions.
type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }
