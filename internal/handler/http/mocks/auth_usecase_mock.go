package mocks

import (
	"context"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// MockAuthUsecase is a mock implementation of IAuthUseCase. Authenticate accepts
// MockToken only.
type MockAuthUsecase struct {
	ShouldFailRegister bool
	ShouldFailLogin    bool
	// PendingActivation makes Register answer like an account claim.
	PendingActivation bool

	MockUser  entity.User
	MockToken string

	LastRegister   usecasecontract.RegisterInput
	LastPicture    string
	LastIdentifier string
	LastMode       entity.StorageMode
}

var _ usecasecontract.IAuthUseCase = (*MockAuthUsecase)(nil)

func NewMockAuthUsecase() *MockAuthUsecase {
	return &MockAuthUsecase{
		MockUser:  NewMockUser(entity.UserTypeUser),
		MockToken: "mock_token",
	}
}

func (m *MockAuthUsecase) Register(ctx context.Context, in usecasecontract.RegisterInput, mode entity.StorageMode) (*usecasecontract.RegisterResult, error) {
	m.LastRegister, m.LastMode = in, mode
	if in.Picture != nil {
		m.LastPicture = in.Picture.Filename
	}
	if m.ShouldFailRegister {
		return nil, apperror.Conflict("Email already registered")
	}
	if m.PendingActivation {
		u := m.MockUser
		u.Active = false
		return &usecasecontract.RegisterResult{PendingActivation: &u}, nil
	}
	return &usecasecontract.RegisterResult{Issued: issue(&m.MockUser, m.MockToken, mode)}, nil
}

func (m *MockAuthUsecase) Login(ctx context.Context, identifier, password string, mode entity.StorageMode) (*entity.IssuedToken, error) {
	m.LastIdentifier, m.LastMode = identifier, mode
	if m.ShouldFailLogin {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	return issue(&m.MockUser, m.MockToken, mode), nil
}

func (m *MockAuthUsecase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	if token == "" || token != m.MockToken {
		return nil, apperror.Unauthenticated("Not authorized to access this route")
	}
	u := m.MockUser
	return &u, nil
}

func (m *MockAuthUsecase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	u := m.MockUser
	return &u, nil
}

// MockActivationUsecase is a mock implementation of IActivationUseCase.
type MockActivationUsecase struct {
	ShouldFailSetPassword   bool
	ShouldFailResetPassword bool
	// SendErr is returned by ResendActivation and ForgotPassword.
	SendErr error

	LastToken    string
	LastPassword string
}

var _ usecasecontract.IActivationUseCase = (*MockActivationUsecase)(nil)

func (m *MockActivationUsecase) SendActivation(ctx context.Context, user *entity.User) error {
	return m.SendErr
}

func (m *MockActivationUsecase) ResendActivation(ctx context.Context, username string) error {
	return m.SendErr
}

func (m *MockActivationUsecase) SetPassword(ctx context.Context, token, newPassword string) (*entity.User, error) {
	m.LastToken, m.LastPassword = token, newPassword
	if m.ShouldFailSetPassword {
		return nil, apperror.Validation("Invalid or expired activation token")
	}
	u := NewMockUser(entity.UserTypeStudent)
	return &u, nil
}

func (m *MockActivationUsecase) ForgotPassword(ctx context.Context, email string) error {
	return m.SendErr
}

func (m *MockActivationUsecase) ResetPassword(ctx context.Context, token, newPassword string) (*entity.User, error) {
	m.LastToken, m.LastPassword = token, newPassword
	if m.ShouldFailResetPassword {
		return nil, apperror.Validation("Invalid or expired reset token")
	}
	u := NewMockUser(entity.UserTypeUser)
	return &u, nil
}
