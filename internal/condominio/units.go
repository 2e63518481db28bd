package condominio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// UnitStore is satisfied by *repo.UnitRepo.
type UnitStore interface {
	Create(ctx context.Context, u *entity.Unit) error
	Get(ctx context.Context, id string) (*entity.Unit, error)
	List(ctx context.Context, pred scope.Predicate, search string, limit, offset int) ([]entity.Unit, int, error)
	Update(ctx context.Context, u *entity.Unit) error
	Delete(ctx context.Context, id string) error
}

// ResidentLookup is satisfied by *repo.ResidentRepo.
type ResidentLookup interface {
	Get(ctx context.Context, id string) (*entity.Resident, error)
}

type UnitService struct {
	store     UnitStore
	residents ResidentLookup
	sc        *Scoper
}

func NewUnitService(store UnitStore, residents ResidentLookup, sc *Scoper) *UnitService {
	return &UnitService{store: store, residents: residents, sc: sc}
}

func (s *UnitService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.UnitInput) (*entity.Unit, error) {
	pl, err := s.sc.place(ctx, p, scope.KindUnit, target)
	if err != nil {
		return nil, err
	}
	number, err := required("number", in.Number)
	if err != nil {
		return nil, err
	}
	u := &entity.Unit{
		ID:         utilities.NewKSUID(),
		OwnerID:    pl.OwnerID,
		TenantID:   pl.TenantID,
		Number:     number,
		Block:      trimmed(in.Block),
		Apartment:  trimmed(in.Apartment),
		Type:       trimmed(in.Type),
		Status:     orDefault(in.Status, "Ativo"),
		OwnerName:  trimmed(in.OwnerName),
		Phone:      trimmed(in.Phone),
		Email:      trimmed(in.Email),
		ResidentID: trimmed(in.ResidentID),
	}
	if err := s.checkResident(ctx, u); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, mapErr(scope.KindUnit, u.ID, err)
	}
	return s.fetch(ctx, u.ID)
}

func (s *UnitService) List(ctx context.Context, p scope.Principal, target scope.Target, search string, page pagination.Page) (pagination.Result[entity.Unit], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindUnit, target)
	if !ok {
		return emptyPage[entity.Unit](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, strings.TrimSpace(search), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Unit]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *UnitService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Unit, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindUnit, id, s.store.Get)
}

func (s *UnitService) Update(ctx context.Context, p scope.Principal, id string, in entity.UnitInput) (*entity.Unit, error) {
	u, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindUnit, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if in.Number != nil {
		if u.Number, err = required("number", in.Number); err != nil {
			return nil, err
		}
	}
	if in.Block != nil {
		u.Block = trimmed(in.Block)
	}
	if in.Apartment != nil {
		u.Apartment = trimmed(in.Apartment)
	}
	if in.Type != nil {
		u.Type = trimmed(in.Type)
	}
	if in.Status != nil {
		u.Status = orDefault(in.Status, u.Status)
	}
	if in.OwnerName != nil {
		u.OwnerName = trimmed(in.OwnerName)
	}
	if in.Phone != nil {
		u.Phone = trimmed(in.Phone)
	}
	if in.Email != nil {
		u.Email = trimmed(in.Email)
	}
	if in.ResidentID != nil {
		u.ResidentID = trimmed(in.ResidentID)
		if err := s.checkResident(ctx, u); err != nil {
			return nil, err
		}
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, mapErr(scope.KindUnit, id, err)
	}
	return s.fetch(ctx, id)
}

// Delete is refused with Conflict while bills reference the unit.
func (s *UnitService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindUnit, id, s.store.Get); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindUnit, id, err)
	}
	return nil
}

// checkResident requires a linked resident to belong to the unit's owner.
func (s *UnitService) checkResident(ctx context.Context, u *entity.Unit) error {
	if u.ResidentID == nil {
		return nil
	}
	res, err := s.residents.Get(ctx, *u.ResidentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("resident %s does not exist: %w", *u.ResidentID, scope.ErrInvalidArgument)
		}
		return err
	}
	if res.CondominiumParentID == nil || *res.CondominiumParentID != u.OwnerID {
		return &scope.DenyError{Reason: scope.ReasonNotOwner, Kind: scope.KindResident, ID: res.ID}
	}
	return nil
}

func (s *UnitService) fetch(ctx context.Context, id string) (*entity.Unit, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindUnit, id, err)
	}
	return u, nil
}
