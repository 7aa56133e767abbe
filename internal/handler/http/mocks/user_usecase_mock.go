package mocks

import (
	"context"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// MockUserUsecase is a mock implementation of the UserUsecase interface
type MockUserUsecase struct {
	// Control mock behavior
	ShouldFailUpdateProfile  bool
	ShouldFailChangePassword bool
	ShouldFailDelete         bool
	ShouldFailGetByID        bool
	ShouldFailSearch         bool
	ShouldFailReset          bool

	// Return values
	MockUser  entity.User
	MockToken string

	// Recorded arguments
	LastProfile ProfileCall
	LastSearch  contract.UserSearch
	LastPage    int
	LastLimit   int
}

// ProfileCall records what UpdateProfile received.
type ProfileCall struct {
	UserID      string
	Input       usecasecontract.ProfileInput
	PictureName string
}

// Ensure MockUserUsecase implements the correct interface for handler.NewUserHandler
var _ usecasecontract.IUserUseCase = (*MockUserUsecase)(nil)

func NewMockUserUsecase() *MockUserUsecase {
	return &MockUserUsecase{
		MockUser:  NewMockUser(entity.UserTypeUser),
		MockToken: "mock_token",
	}
}

// NewMockUser returns an active local user of the given type.
func NewMockUser(userType entity.UserType) entity.User {
	return entity.User{
		ID:        "mock-user-id",
		Name:      "Test User",
		Username:  "testuser",
		Email:     "test@example.com",
		Provider:  entity.ProviderLocal,
		UserType:  userType,
		Active:    true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockUserUsecase) UpdateProfile(ctx context.Context, userID string, in usecasecontract.ProfileInput) (*entity.User, error) {
	m.LastProfile = ProfileCall{UserID: userID, Input: in}
	if in.Picture != nil {
		m.LastProfile.PictureName = in.Picture.Filename
	}
	if m.ShouldFailUpdateProfile {
		return nil, apperror.Conflict("Email already registered")
	}
	u := m.MockUser
	if in.Name != nil {
		u.Name = *in.Name
	}
	return &u, nil
}

func (m *MockUserUsecase) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string, mode entity.StorageMode) (*entity.IssuedToken, error) {
	if m.ShouldFailChangePassword {
		return nil, apperror.Unauthenticated("Current password is incorrect")
	}
	return issue(&m.MockUser, m.MockToken, mode), nil
}

func (m *MockUserUsecase) DeleteAccount(ctx context.Context, userID string) error {
	if m.ShouldFailDelete {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (m *MockUserUsecase) ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error) {
	m.LastPage, m.LastLimit = page, limit
	u := m.MockUser
	return []*entity.User{&u}, 1, nil
}

func (m *MockUserUsecase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	if m.ShouldFailGetByID {
		return nil, apperror.NotFound("User not found")
	}
	u := m.MockUser
	u.ID = userID
	return &u, nil
}

func (m *MockUserUsecase) SearchUsers(ctx context.Context, search contract.UserSearch) ([]*entity.User, error) {
	m.LastSearch = search
	if m.ShouldFailSearch {
		return nil, apperror.NotFound("No users found")
	}
	u := m.MockUser
	return []*entity.User{&u}, nil
}

func (m *MockUserUsecase) ResetUser(ctx context.Context, userID string) (*entity.User, error) {
	if m.ShouldFailReset {
		return nil, apperror.NotFound("User not found")
	}
	u := m.MockUser.ResetCopy(time.Now())
	u.ID = userID
	return u, nil
}

// issue mimics the token issuer: cookie mode keeps the token out of the body.
func issue(user *entity.User, token string, mode entity.StorageMode) *entity.IssuedToken {
	u := *user
	if mode == entity.StorageCookie {
		return &entity.IssuedToken{User: &u, Delivery: entity.CookieDelivery{Token: token, Expires: time.Now().Add(time.Hour)}}
	}
	return &entity.IssuedToken{User: &u, Delivery: entity.BearerDelivery{Token: token, Mode: mode}}
}
