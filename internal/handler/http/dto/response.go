package dto

import (
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// UserResponse is the public view of a user. Password and token fields never leave the
// server.
type UserResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	Username       string                `json:"username"`
	Email          string                `json:"email,omitempty"`
	UserType       entity.UserType       `json:"userType"`
	ProfilePicture entity.ProfilePicture `json:"profilePicture"`
	Provider       entity.Provider       `json:"provider"`
}

// MeResponse adds account timestamps to the public view.
type MeResponse struct {
	UserResponse
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// AdminUserResponse is what the admin listing shows for each user.
type AdminUserResponse struct {
	UserResponse
	Status         string                 `json:"status"`
	StudentDetails *entity.StudentDetails `json:"studentDetails,omitempty"`
	AlumniDetails  *entity.AlumniDetails  `json:"alumniDetails,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	LastLogin      *time.Time             `json:"lastLogin,omitempty"`
}

// converts an entity.User to a UserResponse DTO.
func ToUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Username:       user.Username,
		Email:          user.Email,
		UserType:       user.UserType,
		ProfilePicture: user.ProfilePicture,
		Provider:       user.Provider,
	}
}

func ToMeResponse(user *entity.User) MeResponse {
	return MeResponse{
		UserResponse: ToUserResponse(user),
		CreatedAt:    user.CreatedAt,
		LastLogin:    user.LastLogin,
	}
}

func ToAdminUserResponse(user *entity.User) AdminUserResponse {
	status := "Inactive"
	if user.Active {
		status = "Active"
	}
	return AdminUserResponse{
		UserResponse:   ToUserResponse(user),
		Status:         status,
		StudentDetails: user.StudentDetails,
		AlumniDetails:  user.AlumniDetails,
		CreatedAt:      user.CreatedAt,
		LastLogin:      user.LastLogin,
	}
}

func ToAdminUserResponses(users []*entity.User) []AdminUserResponse {
	out := make([]AdminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToAdminUserResponse(u))
	}
	return out
}

// AuthResponse carries the user of a successful sign-in. Token is set only for local and
// session storage; cookie mode keeps it out of the body.
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    UserResponse `json:"user"`
}

// UserEnvelope wraps a single user.
type UserEnvelope struct {
	Success bool `json:"success"`
	User    any  `json:"user"`
}

// UserListResponse is one page of the admin listing.
type UserListResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
	Users   []AdminUserResponse `json:"users"`
}

// MessageResponse is a generic response for success/error messages.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is a response for errors.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
