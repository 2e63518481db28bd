package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepo persists issued access tokens so logout can revoke them
// before they expire.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// EnsureTable creates the auth_sessions table if not exists (idempotent).
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS auth_sessions (
  token_id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  expires_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_auth_sessions_expires ON auth_sessions(expires_at);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *SessionRepo) Save(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error {
	const q = `INSERT INTO auth_sessions (token_id, account_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, q, tokenID, accountID, expiresAt)
	return err
}

// Active reports whether the session exists and has not expired.
func (r *SessionRepo) Active(ctx context.Context, tokenID string) (bool, error) {
	var ok bool
	const q = `SELECT EXISTS (SELECT 1 FROM auth_sessions WHERE token_id = $1 AND expires_at > NOW())`
	if err := r.db.GetContext(ctx, &ok, q, tokenID); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *SessionRepo) Delete(ctx context.Context, tokenID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token_id = $1`, tokenID)
	return err
}

// PurgeExpired removes sessions past their expiry and returns how many went.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
