// ABOUTME: User node, the single account table carrying a role tag
// ABOUTME: Includes create/update shapes consumed by the user repository

package entity

import (
	"fmt"
	"time"
)

// Role tags a user account. The role doubles as the principal kind.
type Role string

const (
	RoleOrganizator Role = "organizator"
	RoleMentor      Role = "mentor"
	RoleParticipant Role = "participant"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleOrganizator, RoleMentor, RoleParticipant}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is an account.
type User struct {
	ID           ID[User]     `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
	Username     string       `json:"username"`
	Role         Role         `json:"role"`
	Profile      *ID[Profile] `json:"profile"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (User) Table() string { return "user" }

func (u User) RecordID() RecordID { return u.ID.Record() }

// CreateUser holds the fields of a new account. PasswordHash must already be hashed.
type CreateUser struct {
	Email        string
	PasswordHash string
	Username     string
	Role         Role
}

// Build mints the id and timestamps.
func (c CreateUser) Build() User {
	return User{
		ID:           NewID[User](),
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Username:     c.Username,
		Role:         c.Role,
		CreatedAt:    time.Now().UTC(),
	}
}

// UserUpdate is a partial update of a user.
type UserUpdate struct {
	Email        Opt[string]                `json:"email,omitzero"`
	PasswordHash Opt[string]                `json:"-"`
	Username     Opt[string]                `json:"username,omitzero"`
	Role         Opt[Role]                  `json:"-"`
	Profile      Opt[Nullable[ID[Profile]]] `json:"-"`
}

// Apply merges the present fields into u.
func (p UserUpdate) Apply(u *User) {
	p.Email.ApplyTo(&u.Email)
	p.PasswordHash.ApplyTo(&u.PasswordHash)
	p.Username.ApplyTo(&u.Username)
	p.Role.ApplyTo(&u.Role)
	ApplyNullable(p.Profile, &u.Profile)
}
