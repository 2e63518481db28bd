package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile/entity"
)

// ErrInUse is returned when a profile is still referenced by an account.
var ErrInUse = errors.New("profile in use")

// ProfileRepo provides data access for the profiles table using sqlx.
type ProfileRepo struct {
	db *sqlx.DB
}

func NewProfileRepo(db *sqlx.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// EnsureTable creates the profiles table if not exists (idempotent).
func (r *ProfileRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
  id BIGSERIAL PRIMARY KEY,
  description TEXT NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Seed inserts the given descriptions, skipping ones that already exist.
func (r *ProfileRepo) Seed(ctx context.Context, descriptions []string) error {
	const q = `INSERT INTO profiles (description) VALUES ($1) ON CONFLICT (description) DO NOTHING`
	for _, d := range descriptions {
		if _, err := r.db.ExecContext(ctx, q, d); err != nil {
			return err
		}
	}
	return nil
}

// List returns every profile ordered by id. Catalog scans depend on this order.
func (r *ProfileRepo) List(ctx context.Context) ([]entity.Profile, error) {
	const q = `SELECT id, description, created_at, updated_at FROM profiles ORDER BY id ASC`
	var rows []entity.Profile
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one profile or sql.ErrNoRows.
func (r *ProfileRepo) Get(ctx context.Context, id int64) (*entity.Profile, error) {
	const q = `SELECT id, description, created_at, updated_at FROM profiles WHERE id=$1`
	var p entity.Profile
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a profile and returns its id.
func (r *ProfileRepo) Create(ctx context.Context, description string) (int64, error) {
	const q = `INSERT INTO profiles (description) VALUES ($1) RETURNING id`
	var id int64
	if err := r.db.GetContext(ctx, &id, q, description); err != nil {
		return 0, err
	}
	return id, nil
}

// Update renames a profile; sql.ErrNoRows when it does not exist.
func (r *ProfileRepo) Update(ctx context.Context, id int64, description string) error {
	const q = `UPDATE profiles SET description=$2, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, description)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// Delete removes a profile. A foreign key violation surfaces as ErrInUse.
func (r *ProfileRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrInUse
		}
		return err
	}
	return affectedOne(res)
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
