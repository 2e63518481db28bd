package condominio

import (
	"context"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	userentity "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
)

// ResidentStore is satisfied by *repo.ResidentRepo.
type ResidentStore interface {
	Get(ctx context.Context, id string) (*entity.Resident, error)
	List(ctx context.Context, pred scope.Predicate, profileID int64, search string, limit, offset int) ([]entity.Resident, int, error)
}

// AccountAdmin writes accounts; satisfied by *user.UserService.
type AccountAdmin interface {
	Create(ctx context.Context, in userentity.Input) (*userentity.Account, error)
	Update(ctx context.Context, id string, in userentity.Input) (*userentity.Account, error)
	Delete(ctx context.Context, id string) error
	ScopeAccount(ctx context.Context, id string) (scope.Account, error)
}

// CatalogReader is satisfied by *scope.Classifier.
type CatalogReader interface {
	Catalog(ctx context.Context) (scope.Catalog, error)
}

// UnitLinks is satisfied by *repo.UnitRepo.
type UnitLinks interface {
	CountByResident(ctx context.Context, residentID string) (int, error)
}

// ResidentService manages resident accounts on behalf of their operator.
type ResidentService struct {
	store    ResidentStore
	accounts AccountAdmin
	roles    CatalogReader
	units    UnitLinks
	sc       *Scoper
}

func NewResidentService(store ResidentStore, accounts AccountAdmin, roles CatalogReader, units UnitLinks, sc *Scoper) *ResidentService {
	return &ResidentService{store: store, accounts: accounts, roles: roles, units: units, sc: sc}
}

// Create registers a resident under the calling operator, or under
// target.OperatorID for a privileged caller. The operator must classify as
// Operator and the catalog must hold a resident profile.
func (s *ResidentService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.ResidentInput) (*entity.Resident, error) {
	if err := s.sc.guard.AuthorizeCreate(p, scope.KindResident).Err(scope.KindResident, ""); err != nil {
		return nil, err
	}
	operatorID := p.AccountID
	if p.Privileged && target.OperatorID != "" {
		operatorID = target.OperatorID
	}
	op, err := s.accounts.ScopeAccount(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	cat, err := s.roles.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if cat.Classify(op.ProfileID) != scope.RoleOperator {
		return nil, fmt.Errorf("account %s is not a condominium operator: %w", op.ID, scope.ErrInvalidRole)
	}
	profileID, ok := cat.ResidentProfile()
	if !ok {
		return nil, fmt.Errorf("no resident profile in the catalog: %w", scope.ErrInvalidRole)
	}
	if op.TenantID == "" {
		return nil, fmt.Errorf("operator %s has no empresa: %w", op.ID, scope.ErrInvalidArgument)
	}
	acc, err := s.accounts.Create(ctx, userentity.Input{
		Name:                in.Name,
		Email:               in.Email,
		Password:            in.Password,
		ProfileID:           &profileID,
		TenantID:            &op.TenantID,
		CondominiumParentID: &op.ID,
		ZipCode:             in.ZipCode,
		Phone:               in.Phone,
	})
	if err != nil {
		return nil, err
	}
	s.sc.logger.Infow("resident created", "resident", acc.ID, "operator", op.ID, "tenant", op.TenantID)
	return s.fetch(ctx, acc.ID)
}

// List returns the residents visible to p. Without a resident profile the
// list is empty.
func (s *ResidentService) List(ctx context.Context, p scope.Principal, target scope.Target, search string, page pagination.Page) (pagination.Result[entity.Resident], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindResident, target)
	if !ok {
		return emptyPage[entity.Resident](page), nil
	}
	cat, err := s.roles.Catalog(ctx)
	if err != nil {
		return pagination.Result[entity.Resident]{}, err
	}
	profileID, ok := cat.ResidentProfile()
	if !ok {
		return emptyPage[entity.Resident](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, profileID, strings.TrimSpace(search), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Resident]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *ResidentService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Resident, error) {
	return s.load(ctx, p, scope.ActionRead, id)
}

// Update patches contact fields and the password. Profile, tenant and
// parent stay as created.
func (s *ResidentService) Update(ctx context.Context, p scope.Principal, id string, in entity.ResidentInput) (*entity.Resident, error) {
	if _, err := s.load(ctx, p, scope.ActionWrite, id); err != nil {
		return nil, err
	}
	if _, err := s.accounts.Update(ctx, id, userentity.Input{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		ZipCode:  in.ZipCode,
		Phone:    in.Phone,
	}); err != nil {
		return nil, err
	}
	return s.fetch(ctx, id)
}

// Delete is refused with Conflict while a unit links the resident.
func (s *ResidentService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := s.load(ctx, p, scope.ActionWrite, id); err != nil {
		return err
	}
	n, err := s.units.CountByResident(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("resident %s is linked to %d unit(s): %w", id, n, scope.ErrConflict)
	}
	return s.accounts.Delete(ctx, id)
}

// load runs the point check and hides accounts that are not residents.
func (s *ResidentService) load(ctx context.Context, p scope.Principal, action scope.Action, id string) (*entity.Resident, error) {
	res, err := loadAuthorized(ctx, s.sc, p, action, scope.KindResident, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	cat, err := s.roles.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if cat.Classify(res.ProfileID) != scope.RoleResident {
		return nil, fmt.Errorf("resident %s: %w", id, scope.ErrNotFound)
	}
	return res, nil
}

func (s *ResidentService) fetch(ctx context.Context, id string) (*entity.Resident, error) {
	res, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindResident, id, err)
	}
	return res, nil
}
