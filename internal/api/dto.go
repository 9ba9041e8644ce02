// ABOUTME: Request and response bodies of the HTTP API
// ABOUTME: Responses never carry password hashes

package api

import (
	"time"

	"github.com/2389/teamup/internal/entity"
	"github.com/2389/teamup/internal/repository"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        entity.ID[entity.User]     `json:"id"`
	Email     string                     `json:"email"`
	Username  string                     `json:"username"`
	Role      entity.Role                `json:"role"`
	Profile   *entity.ID[entity.Profile] `json:"profile"`
	CreatedAt time.Time                  `json:"created_at"`
}

func newUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}

// SessionResponse is returned by register, login and password changes.
type SessionResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the JSON body for POST /api/users/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateTechnologyRequest is the JSON body for POST /api/technologies.
type CreateTechnologyRequest struct {
	Name string `json:"name"`
}

// CreateSpecializationRequest is the JSON body for POST /api/specializations.
type CreateSpecializationRequest struct {
	Name string `json:"name"`
}

// CreateTeamRequest is the JSON body for POST /api/teams.
type CreateTeamRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ApplyRequest is the JSON body for POST /api/teams/{id}/members.
type ApplyRequest struct {
	Application string `json:"application"`
}

// AcceptRequest is the JSON body for PATCH /api/teams/{id}/members/{user}.
type AcceptRequest struct {
	Accepted bool `json:"accepted"`
}

// ReviewRequest is the JSON body for POST /api/users/{id}/reviews.
type ReviewRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newList[T any](items []T, page repository.Page) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Limit: page.Limit, Offset: page.Offset}
}
