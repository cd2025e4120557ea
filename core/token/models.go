package token

import (
	"time"

	"github.com/trezcool/darasa/core/user"
)

// ResetToken represents a single password-reset attempt. Several live tokens
// may coexist for the same email; the first one consumed wins.
type ResetToken struct {
	Token     string    `json:"token" db:"token"`
	Email     string    `json:"email" db:"email"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Invitation carries everything needed to provision an account once the
// recipient chooses a password.
type Invitation struct {
	Token     string    `json:"token" db:"token"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"full_name" db:"name"`
	Role      user.Role `json:"role" db:"role"`
	CreatedBy *string   `json:"created_by" db:"created_by"` // inviting admin; nil when unknown
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
