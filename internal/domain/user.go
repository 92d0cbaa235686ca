package domain

import (
	"time"
)

// User role constants.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Avatar is a user's profile image stored in blob storage.
type Avatar struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// User represents a registered account. The reset token fields are always
// set and cleared together: either both are present (a reset is pending) or
// both are null.
type User struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	Role                   string     `json:"role"`
	Avatar                 *Avatar    `json:"avatar,omitempty"`
	ResetPasswordTokenHash *string    `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
