package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

const residentColumns = `id, name, email, profile_id, tenant_id, condominium_parent_id, zip_code, phone, avatar, created_at, updated_at`

// A resident is owned by its condominium parent.
var residentScope = scopeColumns{Owner: "condominium_parent_id", Tenant: "tenant_id"}

// ResidentRepo reads resident accounts. Writes go through the account
// service so passwords are hashed in one place.
type ResidentRepo struct {
	db *sqlx.DB
}

func NewResidentRepo(db *sqlx.DB) *ResidentRepo { return &ResidentRepo{db: db} }

// Get returns the account as a resident view, or sql.ErrNoRows.
func (r *ResidentRepo) Get(ctx context.Context, id string) (*entity.Resident, error) {
	var res entity.Resident
	if err := r.db.GetContext(ctx, &res, `SELECT `+residentColumns+` FROM accounts WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns accounts holding profileID under pred. search matches name
// or email.
func (r *ResidentRepo) List(ctx context.Context, pred scope.Predicate, profileID int64, search string, limit, offset int) ([]entity.Resident, int, error) {
	w := &where{}
	w.add(`profile_id = %[1]s`, profileID)
	w.scope(pred, residentScope)
	if search != "" {
		w.add(`(name ILIKE %[1]s OR email ILIKE %[1]s)`, "%"+search+"%")
	}
	return listPage[entity.Resident](ctx, r.db, residentColumns, "accounts", w, "created_at DESC", limit, offset)
}
