package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant/entity"
)

var (
	// ErrDuplicateTaxID is returned when the unique tax id index rejects a write.
	ErrDuplicateTaxID = errors.New("duplicate tax id")
	// ErrInUse is returned when accounts still reference the tenant.
	ErrInUse = errors.New("tenant in use")
)

const tenantColumns = `id, name, tax_id, email, phone, active, starts_at, ends_at, notes, created_at, updated_at`

// TenantRepo provides data access for the tenants table using sqlx.
type TenantRepo struct {
	db *sqlx.DB
}

func NewTenantRepo(db *sqlx.DB) *TenantRepo { return &TenantRepo{db: db} }

// EnsureTable creates the tenants table if not exists (idempotent).
func (r *TenantRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tenants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  tax_id TEXT UNIQUE,
  email TEXT,
  phone TEXT,
  active BOOLEAN NOT NULL DEFAULT true,
  starts_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  ends_at TIMESTAMPTZ,
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tenants_created_at ON tenants(created_at DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts t. The caller assigns the id.
func (r *TenantRepo) Create(ctx context.Context, t *entity.Tenant) error {
	const q = `INSERT INTO tenants (id, name, tax_id, email, phone, active, starts_at, ends_at, notes)
		VALUES (:id, :name, :tax_id, :email, :phone, :active, :starts_at, :ends_at, :notes)`
	_, err := r.db.NamedExecContext(ctx, q, t)
	return translate(err)
}

// Get returns a tenant or sql.ErrNoRows.
func (r *TenantRepo) Get(ctx context.Context, id string) (*entity.Tenant, error) {
	var t entity.Tenant
	if err := r.db.GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByTaxID returns the tenant holding taxID or sql.ErrNoRows.
func (r *TenantRepo) GetByTaxID(ctx context.Context, taxID string) (*entity.Tenant, error) {
	var t entity.Tenant
	if err := r.db.GetContext(ctx, &t, `SELECT `+tenantColumns+` FROM tenants WHERE tax_id=$1`, taxID); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns one page of tenants, newest first, and the total match count.
// search matches name, email or tax id case-insensitively.
func (r *TenantRepo) List(ctx context.Context, search string, limit, offset int) ([]entity.Tenant, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1 OR tax_id ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	var (
		rows  []entity.Tenant
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := `SELECT ` + tenantColumns + ` FROM tenants` + where +
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		return r.db.SelectContext(gctx, &rows, q, append(append([]any{}, args...), limit, offset)...)
	})
	g.Go(func() error {
		return r.db.GetContext(gctx, &total, `SELECT COUNT(*) FROM tenants`+where, args...)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update writes every mutable column of t.
func (r *TenantRepo) Update(ctx context.Context, t *entity.Tenant) error {
	const q = `UPDATE tenants SET name=:name, tax_id=:tax_id, email=:email, phone=:phone, active=:active,
		starts_at=:starts_at, ends_at=:ends_at, notes=:notes, updated_at=NOW() WHERE id=:id`
	res, err := r.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

// Toggle flips the active flag atomically and returns the new value.
func (r *TenantRepo) Toggle(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, `UPDATE tenants SET active = NOT active, updated_at=NOW() WHERE id=$1 RETURNING active`, id)
	return active, err
}

// IsActive reports the active flag or sql.ErrNoRows.
func (r *TenantRepo) IsActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active, `SELECT active FROM tenants WHERE id=$1`, id)
	return active, err
}

// CountAccounts counts accounts bound to the tenant.
func (r *TenantRepo) CountAccounts(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts WHERE tenant_id=$1`, id)
	return n, err
}

// Delete removes a tenant; sql.ErrNoRows when missing, ErrInUse on FK violation.
func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrDuplicateTaxID
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
