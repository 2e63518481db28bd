package condominio

import (
	"context"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// PayableStore is satisfied by *repo.PayableRepo.
type PayableStore interface {
	Create(ctx context.Context, p *entity.Payable) error
	Get(ctx context.Context, id string) (*entity.Payable, error)
	List(ctx context.Context, pred scope.Predicate, f condorepo.PayableFilter, limit, offset int) ([]entity.Payable, int, error)
	Update(ctx context.Context, p *entity.Payable) error
	Delete(ctx context.Context, id string) error
}

type PayableService struct {
	store PayableStore
	units UnitGetter
	sc    *Scoper
}

func NewPayableService(store PayableStore, units UnitGetter, sc *Scoper) *PayableService {
	return &PayableService{store: store, units: units, sc: sc}
}

// Create records a payable. Month and year default to the due date's.
func (s *PayableService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.PayableInput) (*entity.Payable, error) {
	pl, err := s.sc.place(ctx, p, scope.KindPayable, target)
	if err != nil {
		return nil, err
	}
	desc, err := required("description", in.Description)
	if err != nil {
		return nil, err
	}
	if in.Amount == nil || in.DueDate == nil {
		return nil, fmt.Errorf("amount and dueDate are required: %w", scope.ErrInvalidArgument)
	}
	py := &entity.Payable{
		ID:          utilities.NewKSUID(),
		OwnerID:     pl.OwnerID,
		TenantID:    pl.TenantID,
		Description: desc,
		Amount:      *in.Amount,
		DueDate:     *in.DueDate,
		Month:       int(in.DueDate.Month()),
		Year:        in.DueDate.Year(),
		Category:    trimmed(in.Category),
		Status:      orDefault(in.Status, "Pendente"),
		Notes:       trimmed(in.Notes),
	}
	if in.Month != nil {
		py.Month = *in.Month
	}
	if in.Year != nil {
		py.Year = *in.Year
	}
	if err := validPeriod(py.Month, py.Year, py.Amount); err != nil {
		return nil, err
	}
	if unitID := trimmed(in.UnitID); unitID != nil {
		if err := s.checkUnit(ctx, p, py, *unitID); err != nil {
			return nil, err
		}
	}
	if err := s.store.Create(ctx, py); err != nil {
		return nil, mapErr(scope.KindPayable, py.ID, err)
	}
	return s.fetch(ctx, py.ID)
}

func (s *PayableService) List(ctx context.Context, p scope.Principal, target scope.Target, f condorepo.PayableFilter, page pagination.Page) (pagination.Result[entity.Payable], error) {
	page = page.Normalize()
	pred, ok := s.sc.filter(p, scope.KindPayable, target)
	if !ok {
		return emptyPage[entity.Payable](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, f, page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Payable]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *PayableService) Get(ctx context.Context, p scope.Principal, id string) (*entity.Payable, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindPayable, id, s.store.Get)
}

func (s *PayableService) Update(ctx context.Context, p scope.Principal, id string, in entity.PayableInput) (*entity.Payable, error) {
	py, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindPayable, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if in.Description != nil {
		if py.Description, err = required("description", in.Description); err != nil {
			return nil, err
		}
	}
	if in.Amount != nil {
		py.Amount = *in.Amount
	}
	if in.DueDate != nil {
		py.DueDate = *in.DueDate
	}
	if in.Month != nil {
		py.Month = *in.Month
	}
	if in.Year != nil {
		py.Year = *in.Year
	}
	if err := validPeriod(py.Month, py.Year, py.Amount); err != nil {
		return nil, err
	}
	if in.Category != nil {
		py.Category = trimmed(in.Category)
	}
	if in.Status != nil {
		py.Status = orDefault(in.Status, py.Status)
	}
	if in.Notes != nil {
		py.Notes = trimmed(in.Notes)
	}
	if in.UnitID != nil {
		py.UnitID = nil
		if unitID := trimmed(in.UnitID); unitID != nil {
			if err := s.checkUnit(ctx, p, py, *unitID); err != nil {
				return nil, err
			}
		}
	}
	if err := s.store.Update(ctx, py); err != nil {
		return nil, mapErr(scope.KindPayable, id, err)
	}
	return s.fetch(ctx, id)
}

func (s *PayableService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindPayable, id, s.store.Get); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindPayable, id, err)
	}
	return nil
}

// checkUnit links unitID when the caller can write it and it belongs to
// the payable's owner.
func (s *PayableService) checkUnit(ctx context.Context, p scope.Principal, py *entity.Payable, unitID string) error {
	unit, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindUnit, unitID, s.units.Get)
	if err != nil {
		return err
	}
	if unit.OwnerID != py.OwnerID || unit.TenantID != py.TenantID {
		return fmt.Errorf("unit %s belongs to another operator: %w", unitID, scope.ErrInvalidArgument)
	}
	py.UnitID = &unit.ID
	return nil
}

func (s *PayableService) fetch(ctx context.Context, id string) (*entity.Payable, error) {
	py, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindPayable, id, err)
	}
	return py, nil
}
