package condominio

import (
	"context"
	"fmt"
	"strings"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/entity"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// LedgerStore is satisfied by *repo.LedgerRepo.
type LedgerStore interface {
	Create(ctx context.Context, e *entity.LedgerEntry) error
	Get(ctx context.Context, id string) (*entity.LedgerEntry, error)
	List(ctx context.Context, pred scope.Predicate, typ string, limit, offset int) ([]entity.LedgerEntry, int, error)
	Update(ctx context.Context, e *entity.LedgerEntry) error
	Delete(ctx context.Context, id string) error
}

type LedgerService struct {
	store LedgerStore
	sc    *Scoper
}

func NewLedgerService(store LedgerStore, sc *Scoper) *LedgerService {
	return &LedgerService{store: store, sc: sc}
}

func (s *LedgerService) Create(ctx context.Context, p scope.Principal, target scope.Target, in entity.LedgerEntryInput) (*entity.LedgerEntry, error) {
	pl, err := s.sc.place(ctx, p, scope.KindLedgerEntry, target)
	if err != nil {
		return nil, err
	}
	typ, err := ledgerType(in.Type)
	if err != nil {
		return nil, err
	}
	reason, err := required("reason", in.Reason)
	if err != nil {
		return nil, err
	}
	if in.Date == nil || in.Amount == nil {
		return nil, fmt.Errorf("date and amount are required: %w", scope.ErrInvalidArgument)
	}
	if *in.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", scope.ErrInvalidArgument)
	}
	e := &entity.LedgerEntry{
		ID:       utilities.NewKSUID(),
		OwnerID:  pl.OwnerID,
		TenantID: pl.TenantID,
		Type:     typ,
		Date:     *in.Date,
		Amount:   *in.Amount,
		Reason:   reason,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, mapErr(scope.KindLedgerEntry, e.ID, err)
	}
	return s.fetch(ctx, e.ID)
}

// List filters by type when typ is not empty.
func (s *LedgerService) List(ctx context.Context, p scope.Principal, target scope.Target, typ string, page pagination.Page) (pagination.Result[entity.LedgerEntry], error) {
	page = page.Normalize()
	if typ = strings.TrimSpace(typ); typ != "" {
		var err error
		if typ, err = ledgerType(&typ); err != nil {
			return pagination.Result[entity.LedgerEntry]{}, err
		}
	}
	pred, ok := s.sc.filter(p, scope.KindLedgerEntry, target)
	if !ok {
		return emptyPage[entity.LedgerEntry](page), nil
	}
	rows, total, err := s.store.List(ctx, pred, typ, page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.LedgerEntry]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *LedgerService) Get(ctx context.Context, p scope.Principal, id string) (*entity.LedgerEntry, error) {
	return loadAuthorized(ctx, s.sc, p, scope.ActionRead, scope.KindLedgerEntry, id, s.store.Get)
}

func (s *LedgerService) Update(ctx context.Context, p scope.Principal, id string, in entity.LedgerEntryInput) (*entity.LedgerEntry, error) {
	e, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindLedgerEntry, id, s.store.Get)
	if err != nil {
		return nil, err
	}
	if in.Type != nil {
		if e.Type, err = ledgerType(in.Type); err != nil {
			return nil, err
		}
	}
	if in.Reason != nil {
		if e.Reason, err = required("reason", in.Reason); err != nil {
			return nil, err
		}
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, fmt.Errorf("amount must be positive: %w", scope.ErrInvalidArgument)
		}
		e.Amount = *in.Amount
	}
	if err := s.store.Update(ctx, e); err != nil {
		return nil, mapErr(scope.KindLedgerEntry, id, err)
	}
	return s.fetch(ctx, id)
}

func (s *LedgerService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if _, err := loadAuthorized(ctx, s.sc, p, scope.ActionWrite, scope.KindLedgerEntry, id, s.store.Get); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapErr(scope.KindLedgerEntry, id, err)
	}
	return nil
}

func (s *LedgerService) fetch(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapErr(scope.KindLedgerEntry, id, err)
	}
	return e, nil
}

// ledgerType accepts Entrada and Saída in any case, and Saida without the
// accent.
func ledgerType(s *string) (string, error) {
	v := trimmed(s)
	if v != nil {
		switch strings.ToLower(*v) {
		case "entrada":
			return entity.LedgerIncome, nil
		case "saída", "saida":
			return entity.LedgerExpense, nil
		}
	}
	return "", fmt.Errorf("type must be %s or %s: %w", entity.LedgerIncome, entity.LedgerExpense, scope.ErrInvalidArgument)
}
