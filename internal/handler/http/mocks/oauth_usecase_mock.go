package mocks

import (
	"context"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// MockOAuthUsecase is a mock implementation of IOAuthUseCase. Complete issues in
// CompleteMode.
type MockOAuthUsecase struct {
	ShouldFailComplete bool
	Configured         map[entity.Provider]bool
	CompleteMode       entity.StorageMode

	MockUser  entity.User
	MockToken string

	LastBeginMode entity.StorageMode
	LastCode      string
	LastState     string
}

var _ usecasecontract.IOAuthUseCase = (*MockOAuthUsecase)(nil)

func NewMockOAuthUsecase() *MockOAuthUsecase {
	return &MockOAuthUsecase{
		Configured:   map[entity.Provider]bool{entity.ProviderGoogle: true, entity.ProviderGitHub: true},
		CompleteMode: entity.StorageCookie,
		MockUser:     NewMockUser(entity.UserTypeUser),
		MockToken:    "mock_token",
	}
}

func (m *MockOAuthUsecase) IsConfigured(provider entity.Provider) bool {
	return m.Configured[provider]
}

func (m *MockOAuthUsecase) Begin(ctx context.Context, provider entity.Provider, mode entity.StorageMode) (string, error) {
	if !m.Configured[provider] {
		return "", apperror.New(apperror.ErrUnavailable, provider.DisplayName()+" login is not configured")
	}
	m.LastBeginMode = mode
	return "https://provider.example.com/authorize?state=mock-state", nil
}

func (m *MockOAuthUsecase) Complete(ctx context.Context, provider entity.Provider, code, state string) (*entity.IssuedToken, error) {
	m.LastCode, m.LastState = code, state
	if m.ShouldFailComplete {
		return nil, apperror.Validation("No email found from " + provider.DisplayName() + " profile")
	}
	return issue(&m.MockUser, m.MockToken, m.CompleteMode), nil
}
