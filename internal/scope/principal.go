package scope

// Principal is the authenticated caller of one request. It is built once by
// the auth layer and passed by value to every authorization call.
type Principal struct {
	AccountID           string
	Email               string
	ProfileID           int64
	Role                Role
	Tenant              TenantBinding
	CondominiumParentID string
	Privileged          bool
}

// Account is the persisted data a Principal is built from.
type Account struct {
	ID                  string
	Email               string
	ProfileID           int64
	TenantID            string
	CondominiumParentID string
	SuperAdmin          bool
}

// NewPrincipal builds the immutable principal for acc classified as role.
func NewPrincipal(acc Account, role Role) Principal {
	return Principal{
		AccountID:           acc.ID,
		Email:               acc.Email,
		ProfileID:           acc.ProfileID,
		Role:                role,
		Tenant:              BindingFor(AccountTenancy{AccountID: acc.ID, TenantID: acc.TenantID, SuperAdmin: acc.SuperAdmin}),
		CondominiumParentID: acc.CondominiumParentID,
		Privileged:          acc.SuperAdmin,
	}
}

func (p Principal) IsZero() bool { return p.AccountID == "" }

// Target is an impersonation request. It is honoured only for privileged
// principals; ScopeFilter ignores it for everyone else.
type Target struct {
	OperatorID string
	TenantID   string
}

func (t Target) IsZero() bool { return t.OperatorID == "" && t.TenantID == "" }
