package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// AccountSource loads the account a principal is built from.
type AccountSource interface {
	ScopeAccount(ctx context.Context, id string) (scope.Account, error)
}

// SessionStore tracks issued tokens. *repo.SessionRepo satisfies it.
type SessionStore interface {
	Active(ctx context.Context, tokenID string) (bool, error)
}

// Resolver turns verified claims into a scope.Principal.
type Resolver struct {
	accounts   AccountSource
	classifier *scope.Classifier
	sessions   SessionStore
}

// NewResolver builds a resolver. sessions may be nil to skip revocation checks.
func NewResolver(accounts AccountSource, classifier *scope.Classifier, sessions SessionStore) *Resolver {
	return &Resolver{accounts: accounts, classifier: classifier, sessions: sessions}
}

// Resolve loads the account behind claims and classifies it. The binding
// comes from scope.BindingFor on the same row, the rule TenantResolver uses.
// Accounts that no longer exist or revoked sessions yield scope.ErrUnauthorized.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) (scope.Principal, error) {
	if claims == nil || claims.Subject == "" {
		return scope.Principal{}, fmt.Errorf("missing claims: %w", scope.ErrUnauthorized)
	}
	if r.sessions != nil && claims.ID != "" {
		ok, err := r.sessions.Active(ctx, claims.ID)
		if err != nil {
			return scope.Principal{}, fmt.Errorf("session lookup: %w", err)
		}
		if !ok {
			return scope.Principal{}, fmt.Errorf("session revoked: %w", scope.ErrUnauthorized)
		}
	}
	acc, err := r.accounts.ScopeAccount(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return scope.Principal{}, fmt.Errorf("account %s gone: %w", claims.Subject, scope.ErrUnauthorized)
		}
		return scope.Principal{}, err
	}
	role, err := r.classifier.ClassifyRole(ctx, acc.ProfileID)
	if err != nil {
		return scope.Principal{}, fmt.Errorf("classify role: %w", err)
	}
	return scope.NewPrincipal(acc, role), nil
}
