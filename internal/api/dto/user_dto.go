package dto

import (
	"time"

	"github.com/spec-kit/video-service/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	RollNo          string `json:"rollNo"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
	Branch          string `json:"branch"`
	Course          string `json:"course"`
	Year            *int   `json:"year"`
	Section         string `json:"section"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	RollNo     string `json:"rollNo"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account; it never carries the password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	RollNo    string      `json:"rollNo"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Branch    string      `json:"branch,omitempty"`
	Course    string      `json:"course,omitempty"`
	Year      *int        `json:"year,omitempty"`
	Section   string      `json:"section,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewUserResponse maps the domain model.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		RollNo:    u.RollNo,
		Email:     u.Email,
		Role:      u.Role,
		Branch:    u.Branch,
		Course:    u.Course,
		Year:      u.Year,
		Section:   u.Section,
		CreatedAt: u.CreatedAt,
	}
}
