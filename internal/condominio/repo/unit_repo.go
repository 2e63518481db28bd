package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

const unitColumns = `id, owner_id, tenant_id, number, block, apartment, type, status, owner_name, phone, email, resident_id, created_at, updated_at`

var unitScope = scopeColumns{Owner: "owner_id", Tenant: "tenant_id", UnitResident: "resident_id"}

type UnitRepo struct {
	db *sqlx.DB
}

func NewUnitRepo(db *sqlx.DB) *UnitRepo { return &UnitRepo{db: db} }

// EnsureTable creates the units table if not exists (idempotent).
func (r *UnitRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS units (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  number TEXT NOT NULL,
  block TEXT,
  apartment TEXT,
  type TEXT,
  status TEXT NOT NULL DEFAULT 'Ativo',
  owner_name TEXT,
  phone TEXT,
  email TEXT,
  resident_id TEXT REFERENCES accounts(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_units_tenant_owner ON units(tenant_id, owner_id);
CREATE INDEX IF NOT EXISTS idx_units_resident ON units(resident_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *UnitRepo) Create(ctx context.Context, u *entity.Unit) error {
	const q = `INSERT INTO units (id, owner_id, tenant_id, number, block, apartment, type, status, owner_name, phone, email, resident_id)
		VALUES (:id, :owner_id, :tenant_id, :number, :block, :apartment, :type, :status, :owner_name, :phone, :email, :resident_id)`
	_, err := r.db.NamedExecContext(ctx, q, u)
	return translate(err)
}

// Get returns a unit or sql.ErrNoRows.
func (r *UnitRepo) Get(ctx context.Context, id string) (*entity.Unit, error) {
	var u entity.Unit
	if err := r.db.GetContext(ctx, &u, `SELECT `+unitColumns+` FROM units WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns one page of units visible under pred. search matches the
// unit number, owner name or block.
func (r *UnitRepo) List(ctx context.Context, pred scope.Predicate, search string, limit, offset int) ([]entity.Unit, int, error) {
	w := &where{}
	w.scope(pred, unitScope)
	if search != "" {
		w.add(`(number ILIKE %[1]s OR owner_name ILIKE %[1]s OR block ILIKE %[1]s)`, "%"+search+"%")
	}
	return listPage[entity.Unit](ctx, r.db, unitColumns, "units", w, "created_at DESC", limit, offset)
}

func (r *UnitRepo) Update(ctx context.Context, u *entity.Unit) error {
	return namedUpdate(ctx, r.db, `UPDATE units SET owner_id=:owner_id, tenant_id=:tenant_id, number=:number, block=:block,
		apartment=:apartment, type=:type, status=:status, owner_name=:owner_name, phone=:phone, email=:email,
		resident_id=:resident_id, updated_at=NOW() WHERE id=:id`, u)
}

// Delete removes a unit; ErrInUse while bills reference it.
func (r *UnitRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "units", id)
}

// CountByResident counts units linked to residentID.
func (r *UnitRepo) CountByResident(ctx context.Context, residentID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM units WHERE resident_id=$1`, residentID)
	return n, err
}
