package dto

import (
	"github.com/kobisoft/mutabakat_app/internal/core/domain"
)

// CreateUserRequest registers a new actor.
type CreateUserRequest struct {
	Username string  `json:"username" binding:"required,min=3"`
	Password string  `json:"password" binding:"required,min=8"`
	Name     string  `json:"name" binding:"required"`
	Role     string  `json:"role" binding:"required,oneof=ADMIN ACCOUNTING PLANNING COUNTERPARTY"`
	PartyID  *string `json:"partyID"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the issued JWT.
type LoginResponse struct {
	Token string `json:"token"`
}

// UserResponse is the API shape of a user.
type UserResponse struct {
	UserID   string  `json:"userID"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	PartyID  *string `json:"partyID,omitempty"`
}

// ToUserResponse converts a domain.User to its API shape.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Role:     string(u.Role),
		PartyID:  u.PartyID,
	}
}
