package entity

import "time"

// Tenant is an empresa: the licensing unit every scoped record belongs to.
type Tenant struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	TaxID     *string    `db:"tax_id" json:"taxId,omitempty"`
	Email     *string    `db:"email" json:"email,omitempty"`
	Phone     *string    `db:"phone" json:"phone,omitempty"`
	Active    bool       `db:"active" json:"active"`
	StartsAt  time.Time  `db:"starts_at" json:"startsAt"`
	EndsAt    *time.Time `db:"ends_at" json:"endsAt,omitempty"`
	Notes     *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Input carries create and patch fields; nil means "not provided".
type Input struct {
	Name     *string    `json:"name"`
	TaxID    *string    `json:"taxId"`
	Email    *string    `json:"email"`
	Phone    *string    `json:"phone"`
	Active   *bool      `json:"active"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
	Notes    *string    `json:"notes"`
}
