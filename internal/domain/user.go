package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyEmail is returned when a user record has no address to notify.
var ErrEmptyEmail = errors.New("email cannot be empty")

// User is the task owner as mirrored from the authentication service.
// Only the fields required for ownership checks and notifications are kept.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// DisplayName returns the username, falling back to the email address.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Username) != "" {
		return u.Username
	}
	return u.Email
}

// Validate checks that the user can receive notifications.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyID
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	return nil
}
