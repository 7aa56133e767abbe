package entity

import (
	"time"
)

// User represents an account in the system
type User struct {
	ID                   string            `bson:"_id,omitempty" json:"id"`
	Name                 string            `bson:"name" json:"name"`
	Username             string            `bson:"username" json:"username"`
	Email                string            `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash         string            `bson:"password,omitempty" json:"-"`
	Provider             Provider          `bson:"provider" json:"provider"`
	ProviderID           *string           `bson:"providerId" json:"providerId"`
	UserType             UserType          `bson:"userType" json:"userType"`
	Active               bool              `bson:"active" json:"active"`
	ActivationToken      string            `bson:"activationToken,omitempty" json:"-"`
	ActivationExpires    *time.Time        `bson:"activationExpires,omitempty" json:"-"`
	ResetPasswordToken   string            `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpires *time.Time        `bson:"resetPasswordExpires,omitempty" json:"-"`
	ProfilePicture       ProfilePicture    `bson:"profilePicture" json:"profilePicture"`
	StudentDetails       *StudentDetails   `bson:"studentDetails,omitempty" json:"studentDetails,omitempty"`
	AlumniDetails        *AlumniDetails    `bson:"alumniDetails,omitempty" json:"alumniDetails,omitempty"`
	ProfessorDetails     *ProfessorDetails `bson:"professorDetails,omitempty" json:"professorDetails,omitempty"`
	LastLogin            *time.Time        `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt            time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// ProfilePicture points at an asset held by the external media store.
type ProfilePicture struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

type StudentDetails struct {
	GradYear        int    `bson:"gradYear,omitempty" json:"gradYear,omitempty"`
	AdmissionNumber string `bson:"admissionNumber,omitempty" json:"admissionNumber,omitempty"`
}

type AlumniDetails struct {
	GradYear int `bson:"gradYear,omitempty" json:"gradYear,omitempty"`
}

type ProfessorDetails struct {
	Department string `bson:"department,omitempty" json:"department,omitempty"`
}

// UserType is the single authorization field of a user
type UserType string

const (
	UserTypeUser      UserType = "user"
	UserTypeAdmin     UserType = "admin"
	UserTypeStudent   UserType = "student"
	UserTypeAlumni    UserType = "alumni"
	UserTypeProfessor UserType = "professor"
)

func DefaultUserType() UserType {
	return UserTypeUser
}

// Valid reports whether t is one of the known user types.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeUser, UserTypeAdmin, UserTypeStudent, UserTypeAlumni, UserTypeProfessor:
		return true
	}
	return false
}

// Provider is the authentication method that owns an account.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderGitHub   Provider = "github"
	ProviderLinkedIn Provider = "linkedin"
)

// OAuthProviders lists the federation partners in display order.
var OAuthProviders = []Provider{ProviderGoogle, ProviderGitHub, ProviderLinkedIn}

// ParseOAuthProvider returns the provider named by s if it is a federation partner.
func ParseOAuthProvider(s string) (Provider, bool) {
	for _, p := range OAuthProviders {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// DisplayName is used in user-facing messages ("No email found from GitHub profile").
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderGitHub:
		return "GitHub"
	case ProviderLinkedIn:
		return "LinkedIn"
	default:
		return "Local"
	}
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return u.Provider == ProviderLocal && u.Active && u.PasswordHash != ""
}

// GradYear returns the graduation year from whichever detail sub-document carries one.
func (u *User) GradYear() int {
	if u.StudentDetails != nil && u.StudentDetails.GradYear != 0 {
		return u.StudentDetails.GradYear
	}
	if u.AlumniDetails != nil {
		return u.AlumniDetails.GradYear
	}
	return 0
}

// ResetCopy returns the document an admin reset leaves behind: identity, user type and
// graduation years survive, everything else goes back to its zero value.
func (u *User) ResetCopy(now time.Time) *User {
	reset := &User{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		UserType:  u.UserType,
		Provider:  ProviderLocal,
		Active:    false,
		CreatedAt: u.CreatedAt,
		UpdatedAt: now,
	}
	if u.StudentDetails != nil && u.StudentDetails.GradYear != 0 {
		reset.StudentDetails = &StudentDetails{GradYear: u.StudentDetails.GradYear}
	}
	if u.AlumniDetails != nil && u.AlumniDetails.GradYear != 0 {
		reset.AlumniDetails = &AlumniDetails{GradYear: u.AlumniDetails.GradYear}
	}
	return reset
}
