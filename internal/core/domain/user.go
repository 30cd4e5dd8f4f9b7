package domain

import (
	"strings"
	"time"
)

// Role is the authorization role stored on a user profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole accepts "user" and "admin" only.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// User is an account together with its profile record.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	AvatarKey    string    `json:"-"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	GoogleSub    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultName derives a display name from the local part of an email.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Identity is what a live session knows about its user. Role is cached for
// the session lifetime and refreshed only on an explicit profile re-fetch.
type Identity struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      Role   `json:"role"`
}

// IdentityOf builds the session view of u.
func IdentityOf(sessionID string, u *User) Identity {
	return Identity{
		SessionID: sessionID,
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

// AuthEventType is the kind of session-state change.
type AuthEventType string

const (
	AuthSignedIn    AuthEventType = "SIGNED_IN"
	AuthSignedOut   AuthEventType = "SIGNED_OUT"
	AuthUserUpdated AuthEventType = "USER_UPDATED"
)

// AuthEvent is one entry of the session-state change stream. UserID is always
// set; SessionID is empty for USER_UPDATED events that apply to every session
// of the user.
type AuthEvent struct {
	Type      AuthEventType
	SessionID string
	UserID    string
}
