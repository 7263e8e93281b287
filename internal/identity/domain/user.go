// Package domain defines the identity record persisted by the identity stores and its
// mapping to the Identity capability carried in sessions.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	credentialDomain "github.com/allisson/gatekeeper/internal/credential/domain"
	"github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/policy"
)

// User is an account record.
type User struct {
	ID        uuid.UUID                // Time-ordered identifier (UUIDv7)
	Username  string                   // Unique login name
	Binding   credentialDomain.Binding // Password hash record
	IsAdmin   bool                     // Admin accounts map to the admin role
	Version   int64                    // 1 on creation, incremented on every save
	CreatedAt time.Time
}

// Role returns the authorization role of the account.
func (u User) Role() policy.Role {
	if u.IsAdmin {
		return policy.RoleAdmin
	}
	return policy.RoleMember
}

// ToIdentity maps the record to the capability stored in the session at login.
func (u User) ToIdentity() policy.Identity {
	return policy.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role(),
	}
}

// userJSON is the file encoding of a record. created_at is in Unix milliseconds.
type userJSON struct {
	ID        uuid.UUID                `json:"id"`
	Username  string                   `json:"username"`
	Binding   credentialDomain.Binding `json:"credential_binding"`
	IsAdmin   bool                     `json:"is_admin"`
	Version   int64                    `json:"version"`
	CreatedAt int64                    `json:"created_at"`
}

// MarshalJSON encodes the record for the file store.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:        u.ID,
		Username:  u.Username,
		Binding:   u.Binding,
		IsAdmin:   u.IsAdmin,
		Version:   u.Version,
		CreatedAt: u.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes a record written by MarshalJSON.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw userJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrCorruptRecord, err.Error())
	}
	*u = User{
		ID:        raw.ID,
		Username:  raw.Username,
		Binding:   raw.Binding,
		IsAdmin:   raw.IsAdmin,
		Version:   raw.Version,
		CreatedAt: time.UnixMilli(raw.CreatedAt).UTC(),
	}
	return nil
}

// Domain-specific errors for identity operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUsernameTaken indicates a user with the same username already exists.
	ErrUsernameTaken = errors.Wrap(errors.ErrConflict, "username already taken")

	// ErrInvalidCredentials indicates the username or password didn't match.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid username or password")

	// ErrVersionConflict indicates the record was missing or saved by someone else since it was read.
	ErrVersionConflict = errors.Wrap(errors.ErrConflict, "user record was modified concurrently")

	// ErrCorruptRecord indicates a stored record couldn't be decoded.
	ErrCorruptRecord = errors.New("corrupt identity record")
)
