package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-condominio-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/pagination"
	"github.com/ovaphlow/pitchfork/service-condominio-go/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports hashes made with a lower cost than configured.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c < b.cost()
}

// Store is satisfied by *repo.UserRepo.
type Store interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	List(ctx context.Context, search string, limit, offset int) ([]entity.Account, int, error)
	Update(ctx context.Context, a *entity.Account) error
	Delete(ctx context.Context, id string) error
	IncrementFailedLogin(ctx context.Context, id string) (int, error)
	LockIfThreshold(ctx context.Context, id string, threshold int, lockMinutes int) (bool, error)
	ResetLoginSuccess(ctx context.Context, id string) error
	UnlockIfExpired(ctx context.Context, id string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash, algo string) error
}

// TenantChecker reports whether a tenant exists and is active.
type TenantChecker interface {
	IsActive(ctx context.Context, id string) (bool, error)
}

// UserService orchestrates authentication and account lifecycle flows.
type UserService struct {
	repo    Store
	hasher  PasswordHasher
	tenants TenantChecker
	logger  *zap.SugaredLogger
	// configuration knobs
	MaxFailed   int
	LockMinutes int
	MinPassword int
}

func NewUserService(r Store, hasher PasswordHasher, tenants TenantChecker, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, tenants: tenants, logger: logger, MaxFailed: 6, LockMinutes: 15, MinPassword: 6}
}

var (
	ErrLocked         = errors.New("user locked")
	ErrDisabled       = errors.New("user disabled")
	ErrBadCredentials = errors.New("invalid credentials")
)

// AuthenticatePassword performs password authentication by email.
// On success resets counters and returns the account.
func (s *UserService) AuthenticatePassword(ctx context.Context, email, password string) (*entity.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrBadCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		} // avoid user enumeration
		return nil, err
	}

	// Expired lock auto-unlock attempt
	if u.Status == "locked" && u.LockedUntil != nil && u.LockedUntil.Before(time.Now()) {
		if unlocked, _ := s.repo.UnlockIfExpired(ctx, u.ID); unlocked {
			u.Status = "active"
			u.LockedUntil = nil
		}
	}

	if u.Status == "locked" {
		return nil, ErrLocked
	}
	if u.Status == "disabled" {
		return nil, ErrDisabled
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}

	if !s.hasher.Verify(*u.PasswordHash, password) {
		if _, incErr := s.repo.IncrementFailedLogin(ctx, u.ID); incErr == nil {
			if locked, _ := s.repo.LockIfThreshold(ctx, u.ID, s.MaxFailed, s.LockMinutes); locked {
				s.logger.Warnw("account locked after failed logins", "account", u.ID)
			}
		}
		return nil, ErrBadCredentials
	}

	if err := s.repo.ResetLoginSuccess(ctx, u.ID); err != nil {
		return nil, err
	}

	if s.hasher.NeedsRehash(*u.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			_ = s.repo.UpdatePassword(ctx, u.ID, newHash, algo)
		}
	}
	return u, nil
}

// Create validates and inserts a new account with a hashed password.
// Non super admin accounts must reference an existing tenant.
func (s *UserService) Create(ctx context.Context, in entity.Input) (*entity.Account, error) {
	name := trimmed(in.Name)
	if name == nil {
		return nil, fmt.Errorf("name is required: %w", scope.ErrInvalidArgument)
	}
	email := ""
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required: %w", scope.ErrInvalidArgument)
	}
	if in.Password == nil || len(*in.Password) < s.MinPassword {
		return nil, fmt.Errorf("password must have at least %d characters: %w", s.MinPassword, scope.ErrInvalidArgument)
	}
	if in.ProfileID == nil || *in.ProfileID <= 0 {
		return nil, fmt.Errorf("profile is required: %w", scope.ErrInvalidArgument)
	}
	superAdmin := in.IsSuperAdmin != nil && *in.IsSuperAdmin
	tenantID := trimmed(in.TenantID)
	if !superAdmin {
		if tenantID == nil {
			return nil, fmt.Errorf("tenant is required: %w", scope.ErrInvalidArgument)
		}
		if err := s.checkTenant(ctx, *tenantID); err != nil {
			return nil, err
		}
	}
	hash, algo, err := s.hasher.Hash(*in.Password)
	if err != nil {
		return nil, err
	}
	a := &entity.Account{
		ID:                  utilities.NewKSUID(),
		Name:                *name,
		Email:               email,
		PasswordHash:        &hash,
		PasswordAlgo:        &algo,
		ProfileID:           *in.ProfileID,
		TenantID:            tenantID,
		CondominiumParentID: trimmed(in.CondominiumParentID),
		IsSuperAdmin:        superAdmin,
		ZipCode:             trimmed(in.ZipCode),
		Phone:               trimmed(in.Phone),
		Avatar:              trimmed(in.Avatar),
		Status:              "active",
	}
	if err := s.repo.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, userrepo.ErrDuplicateEmail):
			return nil, fmt.Errorf("email %s already registered: %w", email, scope.ErrConflict)
		case errors.Is(err, userrepo.ErrInUse):
			return nil, fmt.Errorf("unknown profile, tenant or parent: %w", scope.ErrInvalidArgument)
		}
		return nil, err
	}
	return s.Get(ctx, a.ID)
}

func (s *UserService) List(ctx context.Context, search string, page pagination.Page) (pagination.Result[entity.Account], error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, strings.TrimSpace(search), page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[entity.Account]{}, err
	}
	return pagination.NewResult(rows, total, page), nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
		}
		return nil, err
	}
	return a, nil
}

// Update patches the provided fields. A password, when given, is rehashed.
func (s *UserService) Update(ctx context.Context, id string, in entity.Input) (*entity.Account, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if n := trimmed(in.Name); n != nil {
			a.Name = *n
		}
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("valid email is required: %w", scope.ErrInvalidArgument)
		}
		a.Email = email
	}
	if in.ProfileID != nil && *in.ProfileID > 0 {
		a.ProfileID = *in.ProfileID
	}
	if in.IsSuperAdmin != nil {
		a.IsSuperAdmin = *in.IsSuperAdmin
	}
	if in.TenantID != nil {
		a.TenantID = trimmed(in.TenantID)
		if a.TenantID != nil {
			if err := s.checkTenant(ctx, *a.TenantID); err != nil {
				return nil, err
			}
		}
	}
	if a.TenantID == nil && !a.IsSuperAdmin {
		return nil, fmt.Errorf("tenant is required: %w", scope.ErrInvalidArgument)
	}
	if in.CondominiumParentID != nil {
		a.CondominiumParentID = trimmed(in.CondominiumParentID)
	}
	if in.ZipCode != nil {
		a.ZipCode = trimmed(in.ZipCode)
	}
	if in.Phone != nil {
		a.Phone = trimmed(in.Phone)
	}
	if in.Avatar != nil {
		a.Avatar = trimmed(in.Avatar)
	}
	if err := s.repo.Update(ctx, a); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
		case errors.Is(err, userrepo.ErrDuplicateEmail):
			return nil, fmt.Errorf("email %s already registered: %w", a.Email, scope.ErrConflict)
		case errors.Is(err, userrepo.ErrInUse):
			return nil, fmt.Errorf("unknown profile, tenant or parent: %w", scope.ErrInvalidArgument)
		}
		return nil, err
	}
	if in.Password != nil {
		if len(*in.Password) < s.MinPassword {
			return nil, fmt.Errorf("password must have at least %d characters: %w", s.MinPassword, scope.ErrInvalidArgument)
		}
		hash, algo, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, id, hash, algo); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("account %s: %w", id, scope.ErrNotFound)
		case errors.Is(err, userrepo.ErrInUse):
			return fmt.Errorf("account %s still owns records: %w", id, scope.ErrConflict)
		}
		return err
	}
	return nil
}

// LookupTenancy implements scope.AccountLookup.
func (s *UserService) LookupTenancy(ctx context.Context, id string) (scope.AccountTenancy, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return scope.AccountTenancy{}, err
	}
	return scope.AccountTenancy{AccountID: a.ID, TenantID: deref(a.TenantID), ProfileID: a.ProfileID, SuperAdmin: a.IsSuperAdmin}, nil
}

// ScopeAccount loads the fields a Principal is built from.
func (s *UserService) ScopeAccount(ctx context.Context, id string) (scope.Account, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return scope.Account{}, err
	}
	return ToScope(a), nil
}

// ToScope projects an account row onto scope.Account.
func ToScope(a *entity.Account) scope.Account {
	return scope.Account{
		ID:                  a.ID,
		Email:               a.Email,
		ProfileID:           a.ProfileID,
		TenantID:            deref(a.TenantID),
		CondominiumParentID: deref(a.CondominiumParentID),
		SuperAdmin:          a.IsSuperAdmin,
	}
}

func (s *UserService) checkTenant(ctx context.Context, id string) error {
	if s.tenants == nil {
		return nil
	}
	if _, err := s.tenants.IsActive(ctx, id); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return fmt.Errorf("empresa %s does not exist: %w", id, scope.ErrInvalidArgument)
		}
		return err
	}
	return nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
