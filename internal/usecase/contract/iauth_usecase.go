package usecasecontract

import (
	"context"
	"io"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// Upload is an optional file attached to a request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// RegisterInput covers both registration shapes: a password means local sign-up, no
// password means claiming a pre-provisioned account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Username string
	UserType entity.UserType
	Picture  *Upload
}

// RegisterResult is either an issued token (sign-up) or a pending activation (claim).
type RegisterResult struct {
	Issued            *entity.IssuedToken
	PendingActivation *entity.User
}

// ITokenIssuer mints a session token and decides how it travels back to the client.
type ITokenIssuer interface {
	Issue(user *entity.User, mode entity.StorageMode) (*entity.IssuedToken, error)
	ParseToken(token string) (*entity.Claims, error)
}

type IAuthUseCase interface {
	Register(ctx context.Context, in RegisterInput, mode entity.StorageMode) (*RegisterResult, error)
	Login(ctx context.Context, identifier, password string, mode entity.StorageMode) (*entity.IssuedToken, error)
	Authenticate(ctx context.Context, token string) (*entity.User, error)
	GetUserByID(ctx context.Context, userID string) (*entity.User, error)
}

// IOAuthUseCase runs the provider redirect dance.
type IOAuthUseCase interface {
	Begin(ctx context.Context, provider entity.Provider, mode entity.StorageMode) (string, error)
	Complete(ctx context.Context, provider entity.Provider, code, state string) (*entity.IssuedToken, error)
	IsConfigured(provider entity.Provider) bool
}

// IActivationUseCase owns the activation and password-reset token flows.
type IActivationUseCase interface {
	SendActivation(ctx context.Context, user *entity.User) error
	ResendActivation(ctx context.Context, username string) error
	SetPassword(ctx context.Context, token, newPassword string) (*entity.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*entity.User, error)
}
