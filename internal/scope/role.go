package scope

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Role is the coarse classification of an account's profile.
type Role uint8

const (
	// RoleUnknown gets the same ownership treatment as RoleOperator.
	RoleUnknown Role = iota
	RoleOperator
	RoleResident
)

func (r Role) String() string {
	switch r {
	case RoleOperator:
		return "operator"
	case RoleResident:
		return "resident"
	default:
		return "unknown"
	}
}

// Profile is one row of the profile catalog.
type Profile struct {
	ID          int64
	Description string
}

var (
	operatorMarkers = []string{"condomínio", "condominio"}
	residentMarkers = []string{"morador"}
)

func matchesAny(desc string, markers []string) bool {
	d := strings.ToLower(desc)
	for _, m := range markers {
		if strings.Contains(d, m) {
			return true
		}
	}
	return false
}

// Catalog is a snapshot of which profile ids play the operator and resident
// roles. The first matching profile wins for each role.
type Catalog struct {
	operatorID  int64
	hasOperator bool
	residentID  int64
	hasResident bool
}

func NewCatalog(profiles []Profile) Catalog {
	var c Catalog
	for _, p := range profiles {
		if !c.hasOperator && matchesAny(p.Description, operatorMarkers) {
			c.operatorID, c.hasOperator = p.ID, true
		}
		if !c.hasResident && matchesAny(p.Description, residentMarkers) {
			c.residentID, c.hasResident = p.ID, true
		}
	}
	return c
}

// Classify maps a profile id to a role. Operator is checked before resident.
func (c Catalog) Classify(profileID int64) Role {
	switch {
	case c.hasOperator && profileID == c.operatorID:
		return RoleOperator
	case c.hasResident && profileID == c.residentID:
		return RoleResident
	default:
		return RoleUnknown
	}
}

func (c Catalog) OperatorProfile() (int64, bool) { return c.operatorID, c.hasOperator }
func (c Catalog) ResidentProfile() (int64, bool) { return c.residentID, c.hasResident }

// CatalogSource lists every profile.
type CatalogSource interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
}

// VersionSource returns a token that changes whenever the catalog is mutated.
type VersionSource interface {
	CatalogVersion(ctx context.Context) (string, error)
}

// Classifier resolves roles from the current catalog. When a VersionSource
// is configured the catalog is memoized until the version changes; without
// one every call rescans.
type Classifier struct {
	source   CatalogSource
	versions VersionSource

	mu      sync.RWMutex
	version string
	cached  *Catalog
}

func NewClassifier(source CatalogSource, versions VersionSource) *Classifier {
	return &Classifier{source: source, versions: versions}
}

// Catalog returns the catalog as of the latest mutation.
func (c *Classifier) Catalog(ctx context.Context) (Catalog, error) {
	if c.versions == nil {
		return c.load(ctx)
	}
	v, err := c.versions.CatalogVersion(ctx)
	if err != nil {
		// unknown version: a fresh scan is always safe
		return c.load(ctx)
	}
	c.mu.RLock()
	if c.cached != nil && c.version == v {
		cat := *c.cached
		c.mu.RUnlock()
		return cat, nil
	}
	c.mu.RUnlock()

	cat, err := c.load(ctx)
	if err != nil {
		return Catalog{}, err
	}
	c.mu.Lock()
	c.cached, c.version = &cat, v
	c.mu.Unlock()
	return cat, nil
}

func (c *Classifier) load(ctx context.Context) (Catalog, error) {
	profiles, err := c.source.ListProfiles(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("list profiles: %w", err)
	}
	return NewCatalog(profiles), nil
}

// ClassifyRole maps profileID to a role against the current catalog.
func (c *Classifier) ClassifyRole(ctx context.Context, profileID int64) (Role, error) {
	cat, err := c.Catalog(ctx)
	if err != nil {
		return RoleUnknown, err
	}
	return cat.Classify(profileID), nil
}
