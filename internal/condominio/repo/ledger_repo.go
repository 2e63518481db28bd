package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

const ledgerColumns = `id, owner_id, tenant_id, type, date, amount, reason, created_at, updated_at`

type LedgerRepo struct {
	db *sqlx.DB
}

func NewLedgerRepo(db *sqlx.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// EnsureTable creates the ledger_entries table if not exists (idempotent).
func (r *LedgerRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  type TEXT NOT NULL,
  date TIMESTAMPTZ NOT NULL,
  amount NUMERIC(12,2) NOT NULL,
  reason TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_tenant_owner ON ledger_entries(tenant_id, owner_id);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_date ON ledger_entries(date DESC);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *LedgerRepo) Create(ctx context.Context, e *entity.LedgerEntry) error {
	const q = `INSERT INTO ledger_entries (id, owner_id, tenant_id, type, date, amount, reason)
		VALUES (:id, :owner_id, :tenant_id, :type, :date, :amount, :reason)`
	_, err := r.db.NamedExecContext(ctx, q, e)
	return translate(err)
}

func (r *LedgerRepo) Get(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	if err := r.db.GetContext(ctx, &e, `SELECT `+ledgerColumns+` FROM ledger_entries WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns entries under pred, newest first, optionally of one type.
func (r *LedgerRepo) List(ctx context.Context, pred scope.Predicate, typ string, limit, offset int) ([]entity.LedgerEntry, int, error) {
	w := &where{}
	w.scope(pred, ownedScope)
	if typ != "" {
		w.add(`type = %[1]s`, typ)
	}
	return listPage[entity.LedgerEntry](ctx, r.db, ledgerColumns, "ledger_entries", w, "date DESC, created_at DESC", limit, offset)
}

func (r *LedgerRepo) Update(ctx context.Context, e *entity.LedgerEntry) error {
	return namedUpdate(ctx, r.db, `UPDATE ledger_entries SET type=:type, date=:date, amount=:amount, reason=:reason,
		updated_at=NOW() WHERE id=:id`, e)
}

func (r *LedgerRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "ledger_entries", id)
}
