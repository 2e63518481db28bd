package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/respond"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// TenantStatus reports whether a tenant is active; missing tenants return
// an error wrapping scope.ErrNotFound.
type TenantStatus interface {
	IsActive(ctx context.Context, id string) (bool, error)
}

// Middleware guards routes with authentication, tenant activation and
// super admin checks.
type Middleware struct {
	issuer   *TokenIssuer
	resolver *Resolver
	tenants  TenantStatus
	cookie   string
	logger   *zap.SugaredLogger
}

func NewMiddleware(issuer *TokenIssuer, resolver *Resolver, tenants TenantStatus, cookie string, logger *zap.SugaredLogger) *Middleware {
	if cookie == "" {
		cookie = "auth_token"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Middleware{issuer: issuer, resolver: resolver, tenants: tenants, cookie: cookie, logger: logger}
}

// Authenticate resolves the principal from the auth cookie, falling back to
// the Authorization bearer header.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFrom(r, m.cookie)
		if token == "" {
			respond.Error(w, m.logger, fmt.Errorf("missing token: %w", scope.ErrUnauthorized))
			return
		}
		claims, err := m.issuer.Verify(token)
		if err != nil {
			m.logger.Debugw("token rejected", "err", err)
			respond.Error(w, m.logger, err)
			return
		}
		p, err := m.resolver.Resolve(r.Context(), claims)
		if err != nil {
			m.logger.Debugw("principal not resolved", "sub", claims.Subject, "err", err)
			respond.Error(w, m.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p, claims)))
	})
}

// RequireActiveTenant lets privileged principals through and otherwise
// requires a bound, existing and active tenant.
func (m *Middleware) RequireActiveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			respond.Error(w, m.logger, scope.ErrUnauthorized)
			return
		}
		if err := m.checkTenant(r.Context(), p); err != nil {
			m.logger.Debugw("tenant check failed", "account", p.AccountID, "tenant", p.Tenant.String(), "err", err)
			respond.Error(w, m.logger, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) checkTenant(ctx context.Context, p scope.Principal) error {
	if p.Privileged {
		return nil
	}
	tid, ok := p.Tenant.TenantID()
	if !ok {
		return fmt.Errorf("account not bound to an empresa: %w", scope.ErrUnauthorized)
	}
	active, err := m.tenants.IsActive(ctx, tid)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return fmt.Errorf("empresa not found: %w", scope.ErrUnauthorized)
		}
		return err
	}
	if !active {
		return fmt.Errorf("empresa %s license inactive: %w", tid, scope.ErrTenantInactive)
	}
	return nil
}

// RequireSuperAdmin rejects non privileged principals with 403.
func (m *Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			respond.Error(w, m.logger, scope.ErrUnauthorized)
			return
		}
		if !p.Privileged {
			respond.Error(w, m.logger, &scope.DenyError{Reason: scope.ReasonNotPrivileged, Kind: "admin"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFrom(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
