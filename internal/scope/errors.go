package scope

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Forbidden and NotFound are kept
// apart so logs can tell "exists but denied" from "does not exist".
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRole     = errors.New("invalid role")
	ErrTenantInactive  = errors.New("tenant inactive")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// Reason explains a DENY verdict.
type Reason string

const (
	ReasonNotOwner      Reason = "not-owner"
	ReasonCrossTenant   Reason = "cross-tenant"
	ReasonNoTenant      Reason = "tenant-unassigned"
	ReasonReadOnlyRole  Reason = "read-only-role"
	ReasonAnonymous     Reason = "anonymous"
	ReasonNotPrivileged Reason = "not-privileged"
)

// DenyError is returned when the point check fails. It unwraps to ErrForbidden.
type DenyError struct {
	Reason Reason
	Kind   Kind
	ID     string
}

func (e *DenyError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Reason)
}

func (e *DenyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return ErrForbidden
}

func IsDenyError(err error) (*DenyError, bool) {
	var deny *DenyError
	if errors.As(err, &deny) {
		return deny, true
	}
	return nil, false
}
