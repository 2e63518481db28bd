package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

const payableColumns = `id, owner_id, tenant_id, description, amount, due_date, month, year, category, status, unit_id, notes, created_at, updated_at`

var ownedScope = scopeColumns{Owner: "owner_id", Tenant: "tenant_id"}

// PayableFilter narrows a payables list; zero fields are ignored.
type PayableFilter struct {
	Month int
	Year  int
}

type PayableRepo struct {
	db *sqlx.DB
}

func NewPayableRepo(db *sqlx.DB) *PayableRepo { return &PayableRepo{db: db} }

// EnsureTable creates the payables table if not exists (idempotent).
func (r *PayableRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS payables (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  description TEXT NOT NULL,
  amount NUMERIC(12,2) NOT NULL,
  due_date TIMESTAMPTZ NOT NULL,
  month INT NOT NULL CHECK (month BETWEEN 1 AND 12),
  year INT NOT NULL,
  category TEXT,
  status TEXT NOT NULL DEFAULT 'Pendente',
  unit_id TEXT REFERENCES units(id) ON DELETE SET NULL,
  notes TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payables_tenant_owner ON payables(tenant_id, owner_id);
CREATE INDEX IF NOT EXISTS idx_payables_period ON payables(year, month);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *PayableRepo) Create(ctx context.Context, p *entity.Payable) error {
	const q = `INSERT INTO payables (id, owner_id, tenant_id, description, amount, due_date, month, year, category, status, unit_id, notes)
		VALUES (:id, :owner_id, :tenant_id, :description, :amount, :due_date, :month, :year, :category, :status, :unit_id, :notes)`
	_, err := r.db.NamedExecContext(ctx, q, p)
	return translate(err)
}

func (r *PayableRepo) Get(ctx context.Context, id string) (*entity.Payable, error) {
	var p entity.Payable
	if err := r.db.GetContext(ctx, &p, `SELECT `+payableColumns+` FROM payables WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns payables under pred ordered by due date.
func (r *PayableRepo) List(ctx context.Context, pred scope.Predicate, f PayableFilter, limit, offset int) ([]entity.Payable, int, error) {
	w := &where{}
	w.scope(pred, ownedScope)
	if f.Month > 0 {
		w.add(`month = %[1]s`, f.Month)
	}
	if f.Year > 0 {
		w.add(`year = %[1]s`, f.Year)
	}
	return listPage[entity.Payable](ctx, r.db, payableColumns, "payables", w, "due_date ASC, created_at DESC", limit, offset)
}

func (r *PayableRepo) Update(ctx context.Context, p *entity.Payable) error {
	return namedUpdate(ctx, r.db, `UPDATE payables SET description=:description, amount=:amount, due_date=:due_date,
		month=:month, year=:year, category=:category, status=:status, unit_id=:unit_id, notes=:notes,
		updated_at=NOW() WHERE id=:id`, p)
}

func (r *PayableRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "payables", id)
}
