package entity

import "time"

// Profile is a row of the `profiles` catalog. Roles are derived from the
// description, so renaming a profile can change what its accounts may do.
type Profile struct {
	ID          int64     `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// DefaultDescriptions are seeded by `migrate` when missing.
var DefaultDescriptions = []string{"Super Admin", "Administrador de Condomínio", "Morador"}
