package dto

import (
	"time"

	"github.com/allisson/gatekeeper/internal/identity/domain"
)

// MessageResponse carries a short status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of an account. The credential binding is never exposed.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterResponse is returned by POST /v1/register.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ListUsersResponse wraps a page of accounts.
type ListUsersResponse struct {
	Data []UserResponse `json:"data"`
}

// MapUserToResponse converts a domain user to its public view.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Role:      string(user.Role()),
		CreatedAt: user.CreatedAt,
	}
}

// MapUsersToListResponse converts a page of users.
func MapUsersToListResponse(users []*domain.User) ListUsersResponse {
	data := make([]UserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, MapUserToResponse(user))
	}
	return ListUsersResponse{Data: data}
}
