package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// Bills are always read joined to their unit so the unit's resident is
// available to the guard.
const (
	billColumns = `b.id, b.owner_id, b.tenant_id, b.unit_id, b.month, b.year, b.amount, b.due_date, b.barcode,
		b.our_number, b.status, b.paid_at, b.notes, b.attachment_key, u.resident_id AS unit_resident_id,
		b.created_at, b.updated_at`
	billFrom = `bills b JOIN units u ON u.id = b.unit_id`
)

var billScope = scopeColumns{Owner: "b.owner_id", Tenant: "b.tenant_id", UnitResident: "u.resident_id"}

type BillRepo struct {
	db *sqlx.DB
}

func NewBillRepo(db *sqlx.DB) *BillRepo { return &BillRepo{db: db} }

// EnsureTable creates the bills table if not exists (idempotent).
func (r *BillRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  unit_id TEXT NOT NULL REFERENCES units(id),
  month INT NOT NULL CHECK (month BETWEEN 1 AND 12),
  year INT NOT NULL,
  amount NUMERIC(12,2) NOT NULL,
  due_date TIMESTAMPTZ NOT NULL,
  barcode TEXT,
  our_number TEXT,
  status TEXT NOT NULL DEFAULT 'Pendente',
  paid_at TIMESTAMPTZ,
  notes TEXT,
  attachment_key TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bills_tenant_owner ON bills(tenant_id, owner_id);
CREATE INDEX IF NOT EXISTS idx_bills_unit ON bills(unit_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	const q = `INSERT INTO bills (id, owner_id, tenant_id, unit_id, month, year, amount, due_date, barcode, our_number, status, paid_at, notes)
		VALUES (:id, :owner_id, :tenant_id, :unit_id, :month, :year, :amount, :due_date, :barcode, :our_number, :status, :paid_at, :notes)`
	_, err := r.db.NamedExecContext(ctx, q, b)
	return translate(err)
}

// Get returns a bill or sql.ErrNoRows.
func (r *BillRepo) Get(ctx context.Context, id string) (*entity.Bill, error) {
	var b entity.Bill
	if err := r.db.GetContext(ctx, &b, `SELECT `+billColumns+` FROM `+billFrom+` WHERE b.id=$1`, id); err != nil {
		return nil, err
	}
	b.HasAttachment = b.AttachmentKey != nil
	return &b, nil
}

// List returns bills visible under pred, optionally limited to one unit.
func (r *BillRepo) List(ctx context.Context, pred scope.Predicate, unitID string, limit, offset int) ([]entity.Bill, int, error) {
	w := &where{}
	w.scope(pred, billScope)
	if unitID != "" {
		w.add(`b.unit_id = %[1]s`, unitID)
	}
	rows, total, err := listPage[entity.Bill](ctx, r.db, billColumns, billFrom, w, "b.year DESC, b.month DESC, b.created_at DESC", limit, offset)
	for i := range rows {
		rows[i].HasAttachment = rows[i].AttachmentKey != nil
	}
	return rows, total, err
}

func (r *BillRepo) Update(ctx context.Context, b *entity.Bill) error {
	return namedUpdate(ctx, r.db, `UPDATE bills SET owner_id=:owner_id, tenant_id=:tenant_id, unit_id=:unit_id, month=:month,
		year=:year, amount=:amount, due_date=:due_date, barcode=:barcode, our_number=:our_number, status=:status,
		paid_at=:paid_at, notes=:notes, updated_at=NOW() WHERE id=:id`, b)
}

// SetAttachment stores the object key of the bill's attachment; nil clears it.
func (r *BillRepo) SetAttachment(ctx context.Context, id string, key *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bills SET attachment_key=$2, updated_at=NOW() WHERE id=$1`, id, key)
	if err != nil {
		return translate(err)
	}
	return affectedOne(res)
}

func (r *BillRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "bills", id)
}
