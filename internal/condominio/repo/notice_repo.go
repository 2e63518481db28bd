package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// Notices are read joined to the caller's read marker, bound as $1.
const (
	noticeColumns = `n.id, n.owner_id, n.tenant_id, n.title, n.description, n.type, n.starts_at, n.ends_at, n.highlighted,
		(r.notice_id IS NOT NULL) AS read, n.created_at, n.updated_at`
	noticeFrom = `notices n LEFT JOIN notice_reads r ON r.notice_id = n.id AND r.account_id = $1`
)

var noticeScope = scopeColumns{Owner: "n.owner_id", Tenant: "n.tenant_id"}

type NoticeRepo struct {
	db *sqlx.DB
}

func NewNoticeRepo(db *sqlx.DB) *NoticeRepo { return &NoticeRepo{db: db} }

// EnsureTable creates notices and notice_reads if not exists (idempotent).
func (r *NoticeRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS notices (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'Informativo',
  starts_at TIMESTAMPTZ NOT NULL,
  ends_at TIMESTAMPTZ,
  highlighted BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notices_tenant_owner ON notices(tenant_id, owner_id);
CREATE TABLE IF NOT EXISTS notice_reads (
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  notice_id TEXT NOT NULL REFERENCES notices(id) ON DELETE CASCADE,
  read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (account_id, notice_id)
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *NoticeRepo) Create(ctx context.Context, n *entity.Notice) error {
	const q = `INSERT INTO notices (id, owner_id, tenant_id, title, description, type, starts_at, ends_at, highlighted)
		VALUES (:id, :owner_id, :tenant_id, :title, :description, :type, :starts_at, :ends_at, :highlighted)`
	_, err := r.db.NamedExecContext(ctx, q, n)
	return translate(err)
}

// Get returns a notice with readerID's read flag, or sql.ErrNoRows.
func (r *NoticeRepo) Get(ctx context.Context, id, readerID string) (*entity.Notice, error) {
	var n entity.Notice
	if err := r.db.GetContext(ctx, &n, `SELECT `+noticeColumns+` FROM `+noticeFrom+` WHERE n.id=$2`, readerID, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns notices under pred, highlighted first, each flagged with
// whether readerID has read it.
func (r *NoticeRepo) List(ctx context.Context, pred scope.Predicate, readerID string, limit, offset int) ([]entity.Notice, int, error) {
	w := &where{args: []any{readerID}}
	w.scope(pred, noticeScope)
	return listPage[entity.Notice](ctx, r.db, noticeColumns, noticeFrom, w, "n.highlighted DESC, n.created_at DESC", limit, offset)
}

// CountUnread counts notices under pred that readerID has no marker for.
func (r *NoticeRepo) CountUnread(ctx context.Context, pred scope.Predicate, readerID string) (int, error) {
	w := &where{args: []any{readerID}}
	w.scope(pred, noticeScope)
	w.raw(`NOT EXISTS (SELECT 1 FROM notice_reads r WHERE r.notice_id = n.id AND r.account_id = $1)`)
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notices n`+w.String(), w.args...)
	return n, err
}

// MarkRead records the read marker. Repeated calls only refresh read_at.
func (r *NoticeRepo) MarkRead(ctx context.Context, readerID, noticeID string) error {
	const q = `INSERT INTO notice_reads (account_id, notice_id, read_at) VALUES ($1, $2, NOW())
		ON CONFLICT (account_id, notice_id) DO UPDATE SET read_at = EXCLUDED.read_at`
	_, err := r.db.ExecContext(ctx, q, readerID, noticeID)
	return translate(err)
}

func (r *NoticeRepo) Update(ctx context.Context, n *entity.Notice) error {
	return namedUpdate(ctx, r.db, `UPDATE notices SET title=:title, description=:description, type=:type,
		starts_at=:starts_at, ends_at=:ends_at, highlighted=:highlighted, updated_at=NOW() WHERE id=:id`, n)
}

func (r *NoticeRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "notices", id)
}
