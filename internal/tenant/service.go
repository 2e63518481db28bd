package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant/entity"
	tenantrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/tenant/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// Store is satisfied by *repo.TenantRepo.
type Store interface {
	Create(ctx context.Context, t *entity.Tenant) error
	Get(ctx context.Context, id string) (*entity.Tenant, error)
	GetByTaxID(ctx context.Context, taxID string) (*entity.Tenant, error)
	List(ctx context.Context, search string, limit, offset int) ([]entity.Tenant, int, error)
	Update(ctx context.Context, t *entity.Tenant) error
	Toggle(ctx context.Context, id string) (bool, error)
	IsActive(ctx context.Context, id string) (bool, error)
	CountAccounts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// Service administers empresas. Callers must already be super admins.
type Service struct {
	store  Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in entity.Input) (*entity.Tenant, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", scope.ErrInvalidArgument)
	}
	taxID := trimmed(in.TaxID)
	if taxID != nil {
		if err := s.ensureTaxIDFree(ctx, *taxID); err != nil {
			return nil, err
		}
	}
	t := &entity.Tenant{
		ID:       utilities.NewKSUID(),
		Name:     strings.TrimSpace(*in.Name),
		TaxID:    taxID,
		Email:    trimmed(in.Email),
		Phone:    trimmed(in.Phone),
		Active:   true,
		StartsAt: s.now(),
		EndsAt:   in.EndsAt,
		Notes:    in.Notes,
	}
	if in.Active != nil {
		t.Active = *in.Active
	}
	if in.StartsAt != nil {
		t.StartsAt = *in.StartsAt
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, s.mapErr(t.ID, err)
	}
	return s.Get(ctx, t.ID)
}

func (s *Service) List(ctx context.Context, search string, page pagination.Page) (pagination.Result[entity.Tenant], error) {
	page = page.Normalize()
	rows, total, err := s.store.List(ctx, strings.TrimSpace(search), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Tenant]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *Service) Get(ctx context.Context, id string) (*entity.Tenant, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr(id, err)
	}
	return t, nil
}

// Update patches the provided fields. A changed tax id is re-checked for
// uniqueness.
func (s *Service) Update(ctx context.Context, id string, in entity.Input) (*entity.Tenant, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", scope.ErrInvalidArgument)
		}
		t.Name = name
	}
	if taxID := trimmed(in.TaxID); taxID != nil && (t.TaxID == nil || *t.TaxID != *taxID) {
		if err := s.ensureTaxIDFree(ctx, *taxID); err != nil {
			return nil, err
		}
		t.TaxID = taxID
	}
	if in.Email != nil {
		t.Email = trimmed(in.Email)
	}
	if in.Phone != nil {
		t.Phone = trimmed(in.Phone)
	}
	if in.Active != nil {
		t.Active = *in.Active
	}
	if in.StartsAt != nil {
		t.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		t.EndsAt = in.EndsAt
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, s.mapErr(id, err)
	}
	return s.Get(ctx, id)
}

// Delete refuses while any account is still bound to the tenant.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountAccounts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("empresa %s has %d linked account(s): %w", id, n, scope.ErrConflict)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapErr(id, err)
	}
	s.logger.Infow("tenant deleted", "tenant", id)
	return nil
}

// Toggle flips the active flag and returns the updated tenant.
func (s *Service) Toggle(ctx context.Context, id string) (*entity.Tenant, error) {
	active, err := s.store.Toggle(ctx, id)
	if err != nil {
		return nil, s.mapErr(id, err)
	}
	s.logger.Infow("tenant toggled", "tenant", id, "active", active)
	return s.Get(ctx, id)
}

// IsActive is used by the activation guard. Missing tenants are NotFound.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	active, err := s.store.IsActive(ctx, id)
	if err != nil {
		return false, s.mapErr(id, err)
	}
	return active, nil
}

func (s *Service) ensureTaxIDFree(ctx context.Context, taxID string) error {
	_, err := s.store.GetByTaxID(ctx, taxID)
	switch {
	case err == nil:
		return fmt.Errorf("tax id %s already registered: %w", taxID, scope.ErrConflict)
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return err
	}
}

func (s *Service) mapErr(id string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("empresa %s: %w", id, scope.ErrNotFound)
	case errors.Is(err, tenantrepo.ErrDuplicateTaxID):
		return fmt.Errorf("tax id already registered: %w", scope.ErrConflict)
	case errors.Is(err, tenantrepo.ErrInUse):
		return fmt.Errorf("empresa %s is referenced: %w", id, scope.ErrConflict)
	}
	return err
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
