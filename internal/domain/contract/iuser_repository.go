package contract

import (
	"context"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// UserSearch holds the optional criteria of an admin user search. String criteria are
// case-insensitive substring matches.
type UserSearch struct {
	ID              string
	Name            string
	Username        string
	Email           string
	AdmissionNumber string
	GradYear        int
}

// ProfileUpdate carries the fields a profile update may change; nil means unchanged and
// an empty Email removes the address.
type ProfileUpdate struct {
	Name           *string
	Username       *string
	Email          *string
	ProfilePicture *entity.ProfilePicture
}

// IUserRepository persists users. Lookups return apperror.ErrNotFound when nothing
// matches and writes return apperror.ErrConflict on a duplicate email or username.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *entity.User) error
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	// The WithPassword reads include the password hash, which default reads leave out.
	GetUserWithPasswordByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserWithPasswordByUsername(ctx context.Context, username string) (*entity.User, error)
	GetUserWithPasswordByID(ctx context.Context, id string) (*entity.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*entity.User, error)
	UpdatePassword(ctx context.Context, id string, hashedPassword string) error
	// LinkProvider moves the account to an OAuth provider and drops any local password.
	LinkProvider(ctx context.Context, id string, provider entity.Provider, providerID string, picture entity.ProfilePicture) (*entity.User, error)
	SetActivationToken(ctx context.Context, id string, tokenHash string, expires time.Time) error
	SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error
	// ConsumeActivationToken validates and clears the token in one update, setting the
	// password and activating the account.
	ConsumeActivationToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error)
	ConsumeResetToken(ctx context.Context, tokenHash string, hashedPassword string, now time.Time) (*entity.User, error)
	ClearActivationToken(ctx context.Context, tokenHash string) error
	ClearResetToken(ctx context.Context, tokenHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	ReplaceUser(ctx context.Context, user *entity.User) error
	// DeleteUser removes the user and returns the removed document.
	DeleteUser(ctx context.Context, id string) (*entity.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error)
	SearchUsers(ctx context.Context, search UserSearch) ([]*entity.User, error)
}
