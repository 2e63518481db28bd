// Package condominio implements the scoped resource services: every
// operation resolves the caller's scope through scope.Guard before the
// repository is touched.
package condominio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	condorepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/condominio/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
)

// Scoper bundles what every resource service needs to scope a request.
type Scoper struct {
	guard   *scope.Guard
	tenants *scope.TenantResolver
	roles   *scope.Classifier
	logger  *zap.SugaredLogger
}

func NewScoper(guard *scope.Guard, tenants *scope.TenantResolver, roles *scope.Classifier, logger *zap.SugaredLogger) *Scoper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scoper{guard: guard, tenants: tenants, roles: roles, logger: logger}
}

// placement is where a new record lands.
type placement struct {
	OwnerID  string
	TenantID string
}

// place authorizes a create of kind and decides owner and tenant. A
// non-privileged caller always gets its own binding. A privileged caller
// names an operator account (whose tenant is resolved) or an explicit tenant.
func (s *Scoper) place(ctx context.Context, p scope.Principal, kind scope.Kind, target scope.Target) (placement, error) {
	if err := s.guard.AuthorizeCreate(p, kind).Err(kind, ""); err != nil {
		return placement{}, err
	}
	if !p.Privileged {
		tid, _ := p.Tenant.TenantID()
		return placement{OwnerID: p.AccountID, TenantID: tid}, nil
	}
	if target.OperatorID != "" {
		acc, err := s.tenants.Tenancy(ctx, target.OperatorID)
		if err != nil {
			return placement{}, err
		}
		role, err := s.roles.ClassifyRole(ctx, acc.ProfileID)
		if err != nil {
			return placement{}, err
		}
		if role != scope.RoleOperator {
			return placement{}, fmt.Errorf("account %s is not a condominium operator: %w", target.OperatorID, scope.ErrInvalidRole)
		}
		tid, ok := scope.BindingFor(acc).TenantID()
		if !ok {
			return placement{}, fmt.Errorf("operator %s has no empresa: %w", target.OperatorID, scope.ErrInvalidArgument)
		}
		return placement{OwnerID: target.OperatorID, TenantID: tid}, nil
	}
	if target.TenantID != "" {
		return placement{OwnerID: p.AccountID, TenantID: target.TenantID}, nil
	}
	if tid, ok := p.Tenant.TenantID(); ok {
		return placement{OwnerID: p.AccountID, TenantID: tid}, nil
	}
	return placement{}, fmt.Errorf("operatorId or empresaId is required: %w", scope.ErrInvalidArgument)
}

// filter returns the list predicate, and false when nothing can match.
func (s *Scoper) filter(p scope.Principal, kind scope.Kind, target scope.Target) (scope.Predicate, bool) {
	pred := s.guard.ScopeFilter(p, kind, target)
	if pred.None {
		s.logger.Debugw("empty scope", "account", p.AccountID, "kind", kind, "tenant", p.Tenant.String())
		return pred, false
	}
	return pred, true
}

type record interface {
	Resource() scope.Resource
}

// loadAuthorized fetches id and runs the point check for action.
func loadAuthorized[T record](ctx context.Context, s *Scoper, p scope.Principal, action scope.Action, kind scope.Kind, id string, get func(context.Context, string) (T, error)) (T, error) {
	var zero T
	rec, err := get(ctx, id)
	if err != nil {
		return zero, mapErr(kind, id, err)
	}
	if err := s.guard.Authorize(p, action, rec.Resource()).Err(kind, id); err != nil {
		return zero, err
	}
	return rec, nil
}

func mapErr(kind scope.Kind, id string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s %s: %w", kind, id, scope.ErrNotFound)
	case errors.Is(err, condorepo.ErrInUse):
		return fmt.Errorf("%s %s is referenced: %w", kind, id, scope.ErrConflict)
	case errors.Is(err, condorepo.ErrDuplicate):
		return fmt.Errorf("%s %s already exists: %w", kind, id, scope.ErrConflict)
	}
	return err
}

func emptyPage[T any](page pagination.Page) pagination.Result[T] {
	return pagination.NewResult[T](nil, 0, page)
}

func required(field string, s *string) (string, error) {
	if v := trimmed(s); v != nil {
		return *v, nil
	}
	return "", fmt.Errorf("%s is required: %w", field, scope.ErrInvalidArgument)
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

func orDefault(s *string, def string) string {
	if v := trimmed(s); v != nil {
		return *v
	}
	return def
}
