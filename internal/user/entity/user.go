package entity

import "time"

// Account represents a row in the `accounts` table. Operators, residents and
// super admins all live here; the profile decides which role applies.
type Account struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        *string    `db:"password_hash" json:"-"`
	PasswordAlgo        *string    `db:"password_algo" json:"-"`
	ProfileID           int64      `db:"profile_id" json:"profileId"`
	TenantID            *string    `db:"tenant_id" json:"tenantId,omitempty"`
	CondominiumParentID *string    `db:"condominium_parent_id" json:"condominiumParentId,omitempty"`
	IsSuperAdmin        bool       `db:"is_super_admin" json:"isSuperAdmin"`
	ZipCode             *string    `db:"zip_code" json:"zipCode,omitempty"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	Avatar              *string    `db:"avatar" json:"avatar,omitempty"`
	Status              string     `db:"status" json:"status"` // active / locked / disabled
	LoginFailedAttempts int        `db:"login_failed_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// Input carries create and patch fields; nil means "not provided".
type Input struct {
	Name                *string `json:"name"`
	Email               *string `json:"email"`
	Password            *string `json:"password"`
	ProfileID           *int64  `json:"profileId"`
	TenantID            *string `json:"tenantId"`
	CondominiumParentID *string `json:"condominiumParentId"`
	IsSuperAdmin        *bool   `json:"isSuperAdmin"`
	ZipCode             *string `json:"zipCode"`
	Phone               *string `json:"phone"`
	Avatar              *string `json:"avatar"`
}
