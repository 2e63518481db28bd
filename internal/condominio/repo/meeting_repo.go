package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

const meetingColumns = `id, owner_id, tenant_id, title, date, time, place, type, agenda, status, created_at, updated_at`

type MeetingRepo struct {
	db *sqlx.DB
}

func NewMeetingRepo(db *sqlx.DB) *MeetingRepo { return &MeetingRepo{db: db} }

// EnsureTable creates the meetings table if not exists (idempotent).
func (r *MeetingRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS meetings (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL REFERENCES accounts(id),
  tenant_id TEXT NOT NULL REFERENCES tenants(id),
  title TEXT NOT NULL,
  date TIMESTAMPTZ NOT NULL,
  time TEXT NOT NULL,
  place TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'Assembleia',
  agenda TEXT,
  status TEXT NOT NULL DEFAULT 'Agendada',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_meetings_tenant_owner ON meetings(tenant_id, owner_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *MeetingRepo) Create(ctx context.Context, m *entity.Meeting) error {
	const q = `INSERT INTO meetings (id, owner_id, tenant_id, title, date, time, place, type, agenda, status)
		VALUES (:id, :owner_id, :tenant_id, :title, :date, :time, :place, :type, :agenda, :status)`
	_, err := r.db.NamedExecContext(ctx, q, m)
	return translate(err)
}

func (r *MeetingRepo) Get(ctx context.Context, id string) (*entity.Meeting, error) {
	var m entity.Meeting
	if err := r.db.GetContext(ctx, &m, `SELECT `+meetingColumns+` FROM meetings WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns meetings under pred; search matches title or place.
func (r *MeetingRepo) List(ctx context.Context, pred scope.Predicate, search string, limit, offset int) ([]entity.Meeting, int, error) {
	w := &where{}
	w.scope(pred, ownedScope)
	if search != "" {
		w.add(`(title ILIKE %[1]s OR place ILIKE %[1]s)`, "%"+search+"%")
	}
	return listPage[entity.Meeting](ctx, r.db, meetingColumns, "meetings", w, "date DESC", limit, offset)
}

func (r *MeetingRepo) Update(ctx context.Context, m *entity.Meeting) error {
	return namedUpdate(ctx, r.db, `UPDATE meetings SET title=:title, date=:date, time=:time, place=:place, type=:type,
		agenda=:agenda, status=:status, updated_at=NOW() WHERE id=:id`, m)
}

func (r *MeetingRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "meetings", id)
}
