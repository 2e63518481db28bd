package scope

// Kind names a tenant-scoped resource collection.
type Kind string

const (
	KindUnit        Kind = "unit"
	KindBill        Kind = "bill"
	KindPayable     Kind = "payable"
	KindLedgerEntry Kind = "ledger-entry"
	KindMeeting     Kind = "meeting"
	KindNotice      Kind = "notice"
	KindResident    Kind = "resident"
)

// Action is what the caller wants to do with a resource.
type Action uint8

const (
	ActionRead Action = iota
	ActionWrite
)

func (a Action) String() string {
	if a == ActionWrite {
		return "write"
	}
	return "read"
}

// Resource is the authorization view of a stored record. UnitResidentID is
// only populated for kinds reachable through a unit.
type Resource struct {
	Kind           Kind
	ID             string
	OwnerAccountID string
	TenantID       string
	UnitResidentID string
}

// Ownership decides ownership for one resource kind and produces the base
// term of the list predicate for the same rule.
type Ownership interface {
	Owns(p Principal, action Action, r Resource) bool
	Base(p Principal) Predicate
}

// DirectOwner: the record's owner is the principal.
type DirectOwner struct{}

func (DirectOwner) Owns(p Principal, _ Action, r Resource) bool {
	return r.OwnerAccountID != "" && r.OwnerAccountID == p.AccountID
}

func (DirectOwner) Base(p Principal) Predicate {
	return Predicate{OwnerAccountID: p.AccountID}
}

// TransitiveViaUnit lets a resident read records attached to a unit they
// live in. Everyone else falls back to direct ownership.
type TransitiveViaUnit struct{}

func (TransitiveViaUnit) Owns(p Principal, action Action, r Resource) bool {
	if p.Role == RoleResident {
		return action == ActionRead && r.UnitResidentID != "" && r.UnitResidentID == p.AccountID
	}
	return DirectOwner{}.Owns(p, action, r)
}

func (TransitiveViaUnit) Base(p Principal) Predicate {
	if p.Role == RoleResident {
		return Predicate{UnitResidentID: p.AccountID}
	}
	return DirectOwner{}.Base(p)
}

// ViaCondominiumParent lets a resident read what their condominium operator
// published.
type ViaCondominiumParent struct{}

func (ViaCondominiumParent) Owns(p Principal, action Action, r Resource) bool {
	if p.Role == RoleResident && p.CondominiumParentID != "" {
		return action == ActionRead && r.OwnerAccountID == p.CondominiumParentID
	}
	return DirectOwner{}.Owns(p, action, r)
}

func (ViaCondominiumParent) Base(p Principal) Predicate {
	if p.Role == RoleResident && p.CondominiumParentID != "" {
		return Predicate{OwnerAccountID: p.CondominiumParentID}
	}
	return DirectOwner{}.Base(p)
}

// DefaultOwnership is the strategy table used by NewGuard.
func DefaultOwnership() map[Kind]Ownership {
	return map[Kind]Ownership{
		KindUnit:        TransitiveViaUnit{},
		KindBill:        TransitiveViaUnit{},
		KindPayable:     DirectOwner{},
		KindLedgerEntry: DirectOwner{},
		KindMeeting:     DirectOwner{},
		KindNotice:      ViaCondominiumParent{},
		KindResident:    DirectOwner{},
	}
}
