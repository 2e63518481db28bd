package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
)

var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrInUse          = errors.New("account in use")
)

const accountColumns = `id, name, email, password_hash, password_algo, profile_id, tenant_id,
	condominium_parent_id, is_super_admin, zip_code, phone, avatar, status,
	login_failed_attempts, locked_until, last_login_at, created_at, updated_at`

// UserRepo provides data access for the accounts table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
// profiles and tenants must exist first.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email CITEXT NOT NULL UNIQUE,
  password_hash TEXT,
  password_algo TEXT,
  profile_id BIGINT NOT NULL REFERENCES profiles(id),
  tenant_id TEXT REFERENCES tenants(id),
  condominium_parent_id TEXT REFERENCES accounts(id),
  is_super_admin BOOLEAN NOT NULL DEFAULT false,
  zip_code TEXT,
  phone TEXT,
  avatar TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  login_failed_attempts INT NOT NULL DEFAULT 0,
  locked_until TIMESTAMPTZ,
  last_login_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_tenant ON accounts(tenant_id);
CREATE INDEX IF NOT EXISTS idx_accounts_parent ON accounts(condominium_parent_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new account row. The caller assigns the id.
func (r *UserRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id, name, email, password_hash, password_algo, profile_id, tenant_id,
		condominium_parent_id, is_super_admin, zip_code, phone, avatar, status)
		VALUES (:id, :name, :email, :password_hash, :password_algo, :profile_id, :tenant_id,
		:condominium_parent_id, :is_super_admin, :zip_code, :phone, :avatar, :status)`
	_, err := r.db.NamedExecContext(ctx, q, a)
	return translate(err)
}

// GetByEmail returns an account matched by email (case-insensitive due to citext) or sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID fetches a full account row.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns a page of accounts matching search on name or email, plus the total.
func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]entity.Account, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	var (
		rows  []entity.Account
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := `SELECT ` + accountColumns + ` FROM accounts` + where +
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		return r.db.SelectContext(gctx, &rows, q, append(append([]any{}, args...), limit, offset)...)
	})
	g.Go(func() error {
		return r.db.GetContext(gctx, &total, `SELECT COUNT(*) FROM accounts`+where, args...)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update writes the mutable profile columns of a.
func (r *UserRepo) Update(ctx context.Context, a *entity.Account) error {
	const q = `UPDATE accounts SET name=:name, email=:email, profile_id=:profile_id, tenant_id=:tenant_id,
		condominium_parent_id=:condominium_parent_id, is_super_admin=:is_super_admin, zip_code=:zip_code,
		phone=:phone, avatar=:avatar, updated_at=NOW() WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

// Delete removes an account; sql.ErrNoRows when missing, ErrInUse on FK violation.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

// IncrementFailedLogin increments the failure counter atomically and returns new value.
func (r *UserRepo) IncrementFailedLogin(ctx context.Context, id string) (int, error) {
	const q = `UPDATE accounts SET login_failed_attempts = login_failed_attempts + 1, updated_at=NOW() WHERE id=$1 RETURNING login_failed_attempts`
	var v int
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		return 0, err
	}
	return v, nil
}

// LockIfThreshold locks the account if attempts >= threshold and currently active.
func (r *UserRepo) LockIfThreshold(ctx context.Context, id string, threshold int, lockMinutes int) (bool, error) {
	const q = `UPDATE accounts SET status='locked', locked_until = NOW() + ($2 || ' minutes')::interval, updated_at=NOW()
              WHERE id=$1 AND status='active' AND login_failed_attempts >= $3 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, lockMinutes, threshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResetLoginSuccess resets failure metrics on successful authentication.
func (r *UserRepo) ResetLoginSuccess(ctx context.Context, id string) error {
	const q = `UPDATE accounts SET login_failed_attempts=0, last_login_at=NOW(), locked_until=NULL, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// UnlockIfExpired sets status back to active if locked_until passed.
func (r *UserRepo) UnlockIfExpired(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE accounts SET status='active', locked_until=NULL, updated_at=NOW()
               WHERE id=$1 AND status='locked' AND locked_until IS NOT NULL AND locked_until < NOW() RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdatePassword updates password hash & algo.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash, algo string) error {
	const q = `UPDATE accounts SET password_hash=$2, password_algo=$3, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash, algo)
	return err
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicateEmail
		case "23503":
			return ErrInUse
		}
	}
	return err
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
