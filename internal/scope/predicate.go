package scope

import "strings"

// Predicate is the row filter a list query must apply. Set fields are ANDed;
// None matches no rows at all and overrides every other field.
type Predicate struct {
	None           bool
	OwnerAccountID string
	UnitResidentID string
	TenantID       string
}

// MatchNone is the predicate given to callers with no usable scope.
func MatchNone() Predicate { return Predicate{None: true} }

// Unrestricted reports whether the predicate lets every row through.
func (p Predicate) Unrestricted() bool {
	return !p.None && p.OwnerAccountID == "" && p.UnitResidentID == "" && p.TenantID == ""
}

// Matches evaluates the predicate against a single resource.
func (p Predicate) Matches(r Resource) bool {
	if p.None {
		return false
	}
	if p.OwnerAccountID != "" && r.OwnerAccountID != p.OwnerAccountID {
		return false
	}
	if p.UnitResidentID != "" && r.UnitResidentID != p.UnitResidentID {
		return false
	}
	if p.TenantID != "" && r.TenantID != p.TenantID {
		return false
	}
	return true
}

func (p Predicate) String() string {
	if p.None {
		return "none"
	}
	if p.Unrestricted() {
		return "all"
	}
	var parts []string
	if p.OwnerAccountID != "" {
		parts = append(parts, "owner="+p.OwnerAccountID)
	}
	if p.UnitResidentID != "" {
		parts = append(parts, "unit.resident="+p.UnitResidentID)
	}
	if p.TenantID != "" {
		parts = append(parts, "tenant="+p.TenantID)
	}
	return strings.Join(parts, " AND ")
}
