package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user"
	userentity "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
)

// Accounts is the part of the user service login needs.
type Accounts interface {
	AuthenticatePassword(ctx context.Context, email, password string) (*userentity.Account, error)
	Get(ctx context.Context, id string) (*userentity.Account, error)
}

// SessionWriter records and revokes sessions. *repo.SessionRepo satisfies it.
type SessionWriter interface {
	Save(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error
	Delete(ctx context.Context, tokenID string) error
}

// AccountView is the public projection returned by login and /me.
type AccountView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ProfileID    int64   `json:"profileId"`
	Role         string  `json:"role"`
	TenantID     *string `json:"tenantId,omitempty"`
	IsSuperAdmin bool    `json:"isSuperAdmin"`
	Avatar       *string `json:"avatar,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        AccountView `json:"user"`
}

// Service issues and revokes sessions.
type Service struct {
	accounts   Accounts
	issuer     *TokenIssuer
	sessions   SessionWriter
	classifier *scope.Classifier
	logger     *zap.SugaredLogger
}

func NewService(accounts Accounts, issuer *TokenIssuer, sessions SessionWriter, classifier *scope.Classifier, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{accounts: accounts, issuer: issuer, sessions: sessions, classifier: classifier, logger: logger}
}

// Login verifies the password, signs a token and records the session.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	acc, err := s.accounts.AuthenticatePassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, claims, err := s.issuer.Issue(user.ToScope(acc))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Save(ctx, claims.ID, acc.ID, claims.ExpiresAt.Time); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	view, err := s.view(ctx, acc)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("login", "account", acc.ID)
	return &LoginResult{AccessToken: token, ExpiresAt: claims.ExpiresAt.Time, User: view}, nil
}

// Logout revokes the session behind claims. Unknown sessions are ignored.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.sessions == nil || claims == nil || claims.ID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}

// Me returns the caller's account view.
func (s *Service) Me(ctx context.Context, p scope.Principal) (AccountView, error) {
	acc, err := s.accounts.Get(ctx, p.AccountID)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return AccountView{}, fmt.Errorf("account gone: %w", scope.ErrUnauthorized)
		}
		return AccountView{}, err
	}
	v := toView(acc)
	v.Role = p.Role.String()
	return v, nil
}

func (s *Service) view(ctx context.Context, acc *userentity.Account) (AccountView, error) {
	v := toView(acc)
	role, err := s.classifier.ClassifyRole(ctx, acc.ProfileID)
	if err != nil {
		return AccountView{}, err
	}
	v.Role = role.String()
	return v, nil
}

func toView(a *userentity.Account) AccountView {
	return AccountView{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		ProfileID:    a.ProfileID,
		TenantID:     a.TenantID,
		IsSuperAdmin: a.IsSuperAdmin,
		Avatar:       a.Avatar,
		ZipCode:      a.ZipCode,
	}
}
