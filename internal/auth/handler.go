package auth

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/respond"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
)

type Handler struct {
	svc    *Service
	issuer *TokenIssuer
	cfg    Config
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, issuer *TokenIssuer, cfg Config, logger *zap.SugaredLogger) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}
	return &Handler{svc: svc, issuer: issuer, cfg: cfg, logger: logger}
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		respond.Error(w, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		switch {
		case errors.Is(err, user.ErrBadCredentials):
			respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Code: "invalid_credentials", Message: "invalid email or password"})
		case errors.Is(err, user.ErrLocked):
			respond.JSON(w, http.StatusForbidden, respond.ErrorBody{Code: "account_locked", Message: "account locked"})
		case errors.Is(err, user.ErrDisabled):
			respond.JSON(w, http.StatusForbidden, respond.ErrorBody{Code: "account_disabled", Message: "account disabled"})
		default:
			respond.Error(w, h.logger, err)
		}
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    res.AccessToken,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, http.StatusOK, res)
}

// Logout revokes the presented session, if any, and clears the cookie.
// It never fails for a missing or invalid token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := tokenFrom(r, h.cfg.CookieName); token != "" {
		if claims, err := h.issuer.Verify(token); err == nil {
			if err := h.svc.Logout(r.Context(), claims); err != nil {
				h.logger.Warnw("session revoke failed", "err", err)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	respond.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.Error(w, h.logger, scope.ErrUnauthorized)
		return
	}
	v, err := h.svc.Me(r.Context(), p)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// Check reports the caller's binding without loading the full account.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.Error(w, h.logger, fmt.Errorf("no principal: %w", scope.ErrUnauthorized))
		return
	}
	tenant, _ := p.Tenant.TenantID()
	respond.JSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"accountId":     p.AccountID,
		"role":          p.Role.String(),
		"tenantId":      tenant,
		"isSuperAdmin":  p.Privileged,
	})
}
