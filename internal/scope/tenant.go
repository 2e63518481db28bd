package scope

import (
	"context"
	"errors"
	"fmt"
)

// BindingKind tags a TenantBinding.
type BindingKind uint8

const (
	// BindingUnassigned is an account with no tenant that is not privileged.
	// It is never treated as "see everything".
	BindingUnassigned BindingKind = iota
	// BindingGlobal is the privileged, unscoped binding.
	BindingGlobal
	// BindingTenant scopes the account to one empresa.
	BindingTenant
)

func (k BindingKind) String() string {
	switch k {
	case BindingGlobal:
		return "global"
	case BindingTenant:
		return "tenant"
	default:
		return "unassigned"
	}
}

// TenantBinding is the tagged tenant scope of an account.
type TenantBinding struct {
	kind BindingKind
	id   string
}

func GlobalBinding() TenantBinding     { return TenantBinding{kind: BindingGlobal} }
func UnassignedBinding() TenantBinding { return TenantBinding{kind: BindingUnassigned} }

// TenantBindingOf binds to the given tenant; an empty id yields Unassigned.
func TenantBindingOf(id string) TenantBinding {
	if id == "" {
		return UnassignedBinding()
	}
	return TenantBinding{kind: BindingTenant, id: id}
}

func (b TenantBinding) Kind() BindingKind { return b.kind }

// TenantID returns the bound tenant, ok is false for Global and Unassigned.
func (b TenantBinding) TenantID() (string, bool) {
	if b.kind != BindingTenant {
		return "", false
	}
	return b.id, true
}

func (b TenantBinding) String() string {
	if b.kind == BindingTenant {
		return "tenant:" + b.id
	}
	return b.kind.String()
}

// AccountTenancy is the slice of an account row the resolver needs.
type AccountTenancy struct {
	AccountID  string
	TenantID   string
	ProfileID  int64
	SuperAdmin bool
}

// BindingFor derives the binding of an account. A super admin without a
// tenant is Global; any account carrying a tenant id is bound to it.
func BindingFor(acc AccountTenancy) TenantBinding {
	if acc.TenantID != "" {
		return TenantBindingOf(acc.TenantID)
	}
	if acc.SuperAdmin {
		return GlobalBinding()
	}
	return UnassignedBinding()
}

// AccountLookup loads tenancy data. Implementations return an error wrapping
// ErrNotFound when the account does not exist.
type AccountLookup interface {
	LookupTenancy(ctx context.Context, accountID string) (AccountTenancy, error)
}

// TenantResolver maps account ids to tenant bindings.
type TenantResolver struct {
	accounts AccountLookup
}

func NewTenantResolver(accounts AccountLookup) *TenantResolver {
	return &TenantResolver{accounts: accounts}
}

// ResolveTenant returns the tenant binding of accountID.
func (r *TenantResolver) ResolveTenant(ctx context.Context, accountID string) (TenantBinding, error) {
	acc, err := r.Tenancy(ctx, accountID)
	if err != nil {
		return UnassignedBinding(), err
	}
	return BindingFor(acc), nil
}

// Tenancy loads the tenancy row of accountID.
func (r *TenantResolver) Tenancy(ctx context.Context, accountID string) (AccountTenancy, error) {
	if accountID == "" {
		return AccountTenancy{}, fmt.Errorf("account id is required: %w", ErrInvalidArgument)
	}
	acc, err := r.accounts.LookupTenancy(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccountTenancy{}, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return AccountTenancy{}, fmt.Errorf("resolve tenant: %w", err)
	}
	return acc, nil
}
