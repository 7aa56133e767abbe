package dto

import "github.com/mikiasgoitom/gatekeeper/internal/domain/entity"

// RegisterRequest covers both registration shapes. It binds from JSON or from the
// multipart form that carries the optional profile picture.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=50"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"omitempty,min=6,max=72"`
	Username string `json:"username" form:"username" binding:"omitempty,username"`
	UserType string `json:"userType" form:"userType" binding:"omitempty,usertype"`
}

// LoginRequest accepts the identifier under any of its historical names.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password" binding:"required"`
}

// ID returns the first identifier the client supplied.
func (r LoginRequest) ID() string {
	for _, v := range []string{r.Identifier, r.Email, r.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

// TokenPasswordRequest redeems an activation or reset token.
type TokenPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type ResendActivationRequest struct {
	Username string `json:"username" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileRequest binds from JSON or multipart; absent fields stay unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name" form:"name"`
	Email    *string `json:"email" form:"email"`
	Username *string `json:"username" form:"username"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SearchUsersRequest holds the admin search criteria. The id may be sent as _id or id.
type SearchUsersRequest struct {
	MongoID         string `json:"_id"`
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	AdmissionNumber string `json:"admissionNumber"`
	GradYear        int    `json:"gradYear"`
}

// BulkRegisterRequest asks for many pre-provisioned accounts.
type BulkRegisterRequest struct {
	Users []CandidateRequest `json:"users" binding:"required,min=1,dive"`
}

// CandidateRequest is one account to provision.
type CandidateRequest struct {
	Username        string `json:"username" binding:"required"`
	Name            string `json:"name" binding:"required,max=50"`
	UserType        string `json:"userType" binding:"omitempty,usertype"`
	GradYear        int    `json:"gradYear"`
	AdmissionNumber string `json:"admissionNumber"`
}

func (r CandidateRequest) ToEntity() entity.CandidateUser {
	return entity.CandidateUser{
		Username:        r.Username,
		Name:            r.Name,
		UserType:        entity.UserType(r.UserType),
		GradYear:        r.GradYear,
		AdmissionNumber: r.AdmissionNumber,
	}
}

func ToCandidates(reqs []CandidateRequest) []entity.CandidateUser {
	out := make([]entity.CandidateUser, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ToEntity())
	}
	return out
}
