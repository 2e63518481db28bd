package scope

import (
	"go.uber.org/zap"
)

// Decision is the verdict of a point check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision { return Decision{Reason: r} }

// Err converts a DENY into a *DenyError. It returns nil when allowed.
func (d Decision) Err(kind Kind, id string) error {
	if d.Allowed {
		return nil
	}
	return &DenyError{Reason: d.Reason, Kind: kind, ID: id}
}

// Guard evaluates point checks and builds list predicates. It holds no
// per-request state and is safe for concurrent use.
type Guard struct {
	strategies map[Kind]Ownership
	logger     *zap.SugaredLogger
}

// NewGuard returns a guard using DefaultOwnership. A nil logger disables
// deny logging.
func NewGuard(logger *zap.SugaredLogger) *Guard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Guard{strategies: DefaultOwnership(), logger: logger}
}

// Ownership returns the strategy for kind; unknown kinds use DirectOwner.
func (g *Guard) Ownership(kind Kind) Ownership {
	if s, ok := g.strategies[kind]; ok {
		return s
	}
	return DirectOwner{}
}

// Authorize checks whether p may perform action on r. Tenant isolation is
// evaluated before ownership and only privileged principals skip it.
func (g *Guard) Authorize(p Principal, action Action, r Resource) Decision {
	d := g.authorize(p, action, r)
	if !d.Allowed {
		g.logger.Debugw("access denied",
			"account", p.AccountID, "role", p.Role.String(), "tenant", p.Tenant.String(),
			"action", action.String(), "kind", r.Kind, "id", r.ID, "reason", d.Reason)
	}
	return d
}

func (g *Guard) authorize(p Principal, action Action, r Resource) Decision {
	if p.IsZero() {
		return deny(ReasonAnonymous)
	}
	if !p.Privileged {
		tid, ok := p.Tenant.TenantID()
		if !ok {
			return deny(ReasonNoTenant)
		}
		if r.TenantID != tid {
			return deny(ReasonCrossTenant)
		}
	}
	if !g.Ownership(r.Kind).Owns(p, action, r) {
		return deny(ReasonNotOwner)
	}
	return allow
}

// AuthorizeCreate checks whether p may create a record of kind. Residents
// are read-only and non-privileged callers need a tenant to stamp.
func (g *Guard) AuthorizeCreate(p Principal, kind Kind) Decision {
	var d Decision
	switch {
	case p.IsZero():
		d = deny(ReasonAnonymous)
	case p.Privileged:
		d = allow
	case p.Tenant.Kind() != BindingTenant:
		d = deny(ReasonNoTenant)
	case p.Role == RoleResident:
		d = deny(ReasonReadOnlyRole)
	default:
		d = allow
	}
	if !d.Allowed {
		g.logger.Debugw("create denied", "account", p.AccountID, "kind", kind, "reason", d.Reason)
	}
	return d
}

// ScopeFilter returns the predicate a list of kind must apply for p.
// target is honoured only for privileged principals.
func (g *Guard) ScopeFilter(p Principal, kind Kind, target Target) Predicate {
	if p.IsZero() {
		return MatchNone()
	}
	if p.Privileged {
		pred := Predicate{OwnerAccountID: target.OperatorID}
		if tid, ok := p.Tenant.TenantID(); ok {
			pred.TenantID = tid
		}
		if target.TenantID != "" {
			pred.TenantID = target.TenantID
		}
		return pred
	}
	tid, ok := p.Tenant.TenantID()
	if !ok {
		return MatchNone()
	}
	pred := g.Ownership(kind).Base(p)
	pred.TenantID = tid
	return pred
}
