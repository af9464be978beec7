// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/aegis/internal/platform/database/schema"
	"github.com/taibuivan/aegis/internal/platform/dberr"
	"github.com/taibuivan/aegis/internal/platform/sec"
	"github.com/taibuivan/aegis/pkg/pagination"
)

// PostgresStore implements [Store] on top of pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// CreateAccountWithCredential inserts Account then Credential inside one
// transaction, rolling back on any failure.
func (s *PostgresStore) CreateAccountWithCredential(ctx context.Context, input NewAccountInput, salt, digest string, algo sec.HashAlgo) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertAccount := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`,
		schema.Account.Table,
		schema.Account.FirstName, schema.Account.LastName, schema.Account.Username,
		schema.Account.Email, schema.Account.Phone, schema.Account.Role, schema.Account.Status,
		schema.Account.ID,
	)

	var id int
	err = tx.QueryRow(ctx, insertAccount,
		input.FirstName, input.LastName, input.Username, input.Email, input.Phone,
		int(input.Role), string(input.Status),
	).Scan(&id)
	if err != nil {
		return 0, dberr.Wrap(err, "create_account")
	}

	insertCredential := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)`,
		schema.Credential.Table,
		schema.Credential.AccountID, schema.Credential.Salt, schema.Credential.Digest, schema.Credential.Algo,
	)
	if _, err := tx.Exec(ctx, insertCredential, id, salt, digest, string(algo)); err != nil {
		return 0, dberr.Wrap(err, "create_credential")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("identity: commit transaction: %w", err)
	}
	return id, nil
}

// GetAccountByEmail loads an account and its credential by email.
func (s *PostgresStore) GetAccountByEmail(ctx context.Context, email string) (Account, Credential, error) {
	return s.getAccount(ctx, schema.Account.Email, email)
}

// GetAccountByID loads an account and its credential by id.
func (s *PostgresStore) GetAccountByID(ctx context.Context, id int) (Account, Credential, error) {
	return s.getAccount(ctx, schema.Account.ID, id)
}

func (s *PostgresStore) getAccount(ctx context.Context, whereCol string, whereVal any) (Account, Credential, error) {
	query := fmt.Sprintf(`
		SELECT a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s,
		       c.%s, c.%s, c.%s
		FROM %s a
		LEFT JOIN %s c ON c.%s = a.%s
		WHERE a.%s = $1`,
		schema.Account.ID, schema.Account.FirstName, schema.Account.LastName, schema.Account.Username,
		schema.Account.Email, schema.Account.Phone, schema.Account.EmailVerified, schema.Account.PhoneVerified,
		schema.Account.Role, schema.Account.Status, schema.Account.CreatedAt, schema.Account.UpdatedAt,
		schema.Credential.Salt, schema.Credential.Digest, schema.Credential.Algo,
		schema.Account.Table, schema.Credential.Table, schema.Credential.AccountID, schema.Account.ID,
		whereCol,
	)

	var (
		acct                Account
		role                int
		status              string
		salt, digest, algo  *string
	)
	row := s.pool.QueryRow(ctx, query, whereVal)
	err := row.Scan(
		&acct.ID, &acct.FirstName, &acct.LastName, &acct.Username, &acct.Email, &acct.Phone,
		&acct.EmailVerified, &acct.PhoneVerified, &role, &status, &acct.CreatedAt, &acct.UpdatedAt,
		&salt, &digest, &algo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, Credential{}, dberr.ErrNotFound
		}
		return Account{}, Credential{}, dberr.Wrap(err, "get_account")
	}

	acct.Role = sec.Role(role)
	acct.Status = AccountStatus(status)

	var credential Credential
	if salt != nil {
		credential = Credential{
			AccountID: acct.ID,
			Salt:      *salt,
			Digest:    *digest,
			Algo:      sec.HashAlgo(*algo),
		}
	}

	return acct, credential, nil
}

// UpdateAccountFields applies a dynamic partial update over {status,
// email_verified, phone_verified}, bumping updated_at.
func (s *PostgresStore) UpdateAccountFields(ctx context.Context, id int, patch AccountPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("identity: empty patch")
	}

	setClauses := []string{}
	args := []any{}
	argN := 1

	if patch.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", schema.Account.Status, argN))
		args = append(args, string(*patch.Status))
		argN++
	}
	if patch.EmailVerified != nil {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", schema.Account.EmailVerified, argN))
		args = append(args, *patch.EmailVerified)
		argN++
	}
	if patch.PhoneVerified != nil {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", schema.Account.PhoneVerified, argN))
		args = append(args, *patch.PhoneVerified)
		argN++
	}
	setClauses = append(setClauses, fmt.Sprintf("%s = now()", schema.Account.UpdatedAt))

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		schema.Account.Table, strings.Join(setClauses, ", "), schema.Account.ID, argN)
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return dberr.Wrap(err, "update_account_fields")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// UpdateRole sets the account's role and bumps updated_at.
func (s *PostgresStore) UpdateRole(ctx context.Context, id int, newRole sec.Role) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $1, %s = now() WHERE %s = $2",
		schema.Account.Table, schema.Account.Role, schema.Account.UpdatedAt, schema.Account.ID)
	tag, err := s.pool.Exec(ctx, query, int(newRole), id)
	if err != nil {
		return dberr.Wrap(err, "update_role")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// SoftDelete marks the account deleted. A call against an already-deleted
// (or missing) row reports ErrNotFound so the caller can surface 404.
func (s *PostgresStore) SoftDelete(ctx context.Context, id int) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $1, %s = now() WHERE %s = $2 AND %s != $1",
		schema.Account.Table, schema.Account.Status, schema.Account.UpdatedAt, schema.Account.ID, schema.Account.Status)
	tag, err := s.pool.Exec(ctx, query, string(StatusDeleted), id)
	if err != nil {
		return dberr.Wrap(err, "soft_delete")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// SetCredential upserts the credential row and bumps the account's updated_at.
func (s *PostgresStore) SetCredential(ctx context.Context, id int, salt, digest string, algo sec.HashAlgo) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("identity: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = now()`,
		schema.Credential.Table,
		schema.Credential.AccountID, schema.Credential.Salt, schema.Credential.Digest, schema.Credential.Algo, schema.Credential.UpdatedAt,
		schema.Credential.AccountID,
		schema.Credential.Salt, schema.Credential.Salt,
		schema.Credential.Digest, schema.Credential.Digest,
		schema.Credential.Algo, schema.Credential.Algo,
		schema.Credential.UpdatedAt,
	)
	if _, err := tx.Exec(ctx, upsert, id, salt, digest, string(algo)); err != nil {
		return dberr.Wrap(err, "set_credential")
	}

	touch := fmt.Sprintf("UPDATE %s SET %s = now() WHERE %s = $1",
		schema.Account.Table, schema.Account.UpdatedAt, schema.Account.ID)
	tag, err := tx.Exec(ctx, touch, id)
	if err != nil {
		return dberr.Wrap(err, "touch_account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("identity: commit transaction: %w", err)
	}
	return nil
}

// ListAccounts returns a filtered, offset-paginated slice of accounts plus the total count.
func (s *PostgresStore) ListAccounts(ctx context.Context, filter AccountFilter, page, limit int) ([]Account, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("%s = $%d", schema.Account.Status, argN))
		args = append(args, string(*filter.Status))
		argN++
	}
	if filter.Role != nil {
		where = append(where, fmt.Sprintf("%s = $%d", schema.Account.Role, argN))
		args = append(args, int(*filter.Role))
		argN++
	}
	whereClause := strings.Join(where, " AND ")

	return s.queryPage(ctx, whereClause, args, page, limit)
}

// SearchAccounts performs a case-insensitive substring search over fields.
func (s *PostgresStore) SearchAccounts(ctx context.Context, query string, fields []string, page, limit int) ([]Account, int, error) {
	columns := map[string]string{
		"firstname": schema.Account.FirstName,
		"lastname":  schema.Account.LastName,
		"username":  schema.Account.Username,
		"email":     schema.Account.Email,
	}
	if len(fields) == 0 {
		fields = []string{"firstname", "lastname", "username", "email"}
	}

	ors := []string{}
	args := []any{"%" + query + "%"}
	for _, f := range fields {
		col, ok := columns[f]
		if !ok {
			continue
		}
		ors = append(ors, fmt.Sprintf("%s ILIKE $1", col))
	}
	if len(ors) == 0 {
		return []Account{}, 0, nil
	}

	whereClause := strings.Join(ors, " OR ")
	return s.queryPageWithArgsOffset(ctx, whereClause, args, page, limit)
}

func (s *PostgresStore) queryPage(ctx context.Context, whereClause string, whereArgs []any, page, limit int) ([]Account, int, error) {
	return s.queryPageWithArgsOffset(ctx, whereClause, whereArgs, page, limit)
}

func (s *PostgresStore) queryPageWithArgsOffset(ctx context.Context, whereClause string, whereArgs []any, page, limit int) ([]Account, int, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	if page <= 0 {
		page = pagination.DefaultPage
	}
	offset := (page - 1) * limit

	countQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", schema.Account.Table, whereClause)
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, whereArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_accounts")
	}

	limitArgN := len(whereArgs) + 1
	offsetArgN := len(whereArgs) + 2
	listQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d`,
		schema.Account.ID, schema.Account.FirstName, schema.Account.LastName, schema.Account.Username,
		schema.Account.Email, schema.Account.Phone, schema.Account.EmailVerified, schema.Account.PhoneVerified,
		schema.Account.Role, schema.Account.Status, schema.Account.CreatedAt, schema.Account.UpdatedAt,
		schema.Account.Table, whereClause, schema.Account.CreatedAt, limitArgN, offsetArgN,
	)

	args := append(append([]any{}, whereArgs...), limit, offset)
	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_accounts")
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		var (
			acct   Account
			role   int
			status string
		)
		if err := rows.Scan(
			&acct.ID, &acct.FirstName, &acct.LastName, &acct.Username, &acct.Email, &acct.Phone,
			&acct.EmailVerified, &acct.PhoneVerified, &role, &status, &acct.CreatedAt, &acct.UpdatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_account")
		}
		acct.Role = sec.Role(role)
		acct.Status = AccountStatus(status)
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "iterate_accounts")
	}

	return accounts, total, nil
}

// DashboardCounts aggregates the figures the admin dashboard displays.
func (s *PostgresStore) DashboardCounts(ctx context.Context) (DashboardStats, error) {
	stats := DashboardStats{ByStatus: map[string]int{}, ByRole: map[string]int{}}

	totalQuery := fmt.Sprintf("SELECT count(*) FROM %s", schema.Account.Table)
	if err := s.pool.QueryRow(ctx, totalQuery).Scan(&stats.Total); err != nil {
		return DashboardStats{}, dberr.Wrap(err, "dashboard_total")
	}

	statusQuery := fmt.Sprintf("SELECT %s, count(*) FROM %s GROUP BY %s", schema.Account.Status, schema.Account.Table, schema.Account.Status)
	if err := s.scanCountGroup(ctx, statusQuery, stats.ByStatus); err != nil {
		return DashboardStats{}, err
	}

	roleQuery := fmt.Sprintf("SELECT %s, count(*) FROM %s GROUP BY %s", schema.Account.Role, schema.Account.Table, schema.Account.Role)
	rows, err := s.pool.Query(ctx, roleQuery)
	if err != nil {
		return DashboardStats{}, dberr.Wrap(err, "dashboard_by_role")
	}
	defer rows.Close()
	for rows.Next() {
		var role, count int
		if err := rows.Scan(&role, &count); err != nil {
			return DashboardStats{}, dberr.Wrap(err, "scan_dashboard_role")
		}
		stats.ByRole[sec.Role(role).String()] = count
	}

	windows := []struct {
		dest *int
		arg  time.Duration
	}{
		{&stats.NewLast24h, 24 * time.Hour},
		{&stats.NewLast7d, 7 * 24 * time.Hour},
		{&stats.NewLast30d, 30 * 24 * time.Hour},
	}
	for _, w := range windows {
		windowQuery := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s >= $1", schema.Account.Table, schema.Account.CreatedAt)
		if err := s.pool.QueryRow(ctx, windowQuery, time.Now().UTC().Add(-w.arg)).Scan(w.dest); err != nil {
			return DashboardStats{}, dberr.Wrap(err, "dashboard_window")
		}
	}

	return stats, nil
}

func (s *PostgresStore) scanCountGroup(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return dberr.Wrap(err, "scan_count_group")
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return dberr.Wrap(err, "scan_count_group_row")
		}
		dest[key] = count
	}
	return rows.Err()
}
