package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile/entity"
	profilerepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/profile/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// Store is the persistence the service needs; *repo.ProfileRepo satisfies it.
type Store interface {
	List(ctx context.Context) ([]entity.Profile, error)
	Get(ctx context.Context, id int64) (*entity.Profile, error)
	Create(ctx context.Context, description string) (int64, error)
	Update(ctx context.Context, id int64, description string) error
	Delete(ctx context.Context, id int64) error
}

// Service manages the profile catalog and keeps the version token in step
// with every mutation.
type Service struct {
	store   Store
	version Version
	logger  *zap.SugaredLogger
}

func NewService(store Store, version Version, logger *zap.SugaredLogger) *Service {
	if version == nil {
		version = &LocalVersion{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, version: version, logger: logger}
}

// Version exposes the token so the role classifier can share it.
func (s *Service) Version() Version { return s.version }

// ListProfiles implements scope.CatalogSource.
func (s *Service) ListProfiles(ctx context.Context) ([]scope.Profile, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]scope.Profile, 0, len(rows))
	for _, p := range rows {
		out = append(out, scope.Profile{ID: p.ID, Description: p.Description})
	}
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]entity.Profile, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Profile, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %d: %w", id, scope.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, description string) (*entity.Profile, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("description is required: %w", scope.ErrInvalidArgument)
	}
	id, err := s.store.Create(ctx, description)
	if err != nil {
		return nil, err
	}
	s.bump(ctx)
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, description string) (*entity.Profile, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("description is required: %w", scope.ErrInvalidArgument)
	}
	if err := s.store.Update(ctx, id, description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %d: %w", id, scope.ErrNotFound)
		}
		return nil, err
	}
	s.bump(ctx)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("profile %d: %w", id, scope.ErrNotFound)
		case errors.Is(err, profilerepo.ErrInUse):
			return fmt.Errorf("profile %d has accounts: %w", id, scope.ErrConflict)
		}
		return err
	}
	s.bump(ctx)
	return nil
}

// bump runs after the write is committed so a reader that sees the new
// token also sees the new rows.
func (s *Service) bump(ctx context.Context) {
	if err := s.version.Bump(ctx); err != nil {
		s.logger.Warnw("catalog version bump failed", "err", err)
	}
}
