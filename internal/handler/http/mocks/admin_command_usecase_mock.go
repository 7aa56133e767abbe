package mocks

import (
	"context"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// MockAdminCommandUsecase records queued commands instead of publishing them.
type MockAdminCommandUsecase struct {
	ShouldFailPublish bool

	LastCommand    string
	LastRequester  string
	LastUserID     string
	LastCandidates []entity.CandidateUser
}

var _ usecasecontract.IAdminCommandUseCase = (*MockAdminCommandUsecase)(nil)

func (m *MockAdminCommandUsecase) record(command, requesterID, userID string, candidates ...entity.CandidateUser) error {
	if m.ShouldFailPublish {
		return apperror.New(apperror.ErrUnavailable, "Message broker is not configured")
	}
	m.LastCommand, m.LastRequester, m.LastUserID, m.LastCandidates = command, requesterID, userID, candidates
	return nil
}

func (m *MockAdminCommandUsecase) RequestBulkRegistration(ctx context.Context, requesterID string, users []entity.CandidateUser) error {
	return m.record(entity.RoutingKeyBulkRegistration, requesterID, "", users...)
}

func (m *MockAdminCommandUsecase) RequestCreate(ctx context.Context, requesterID string, user entity.CandidateUser) error {
	return m.record(entity.RoutingKeyUserCreated, requesterID, "", user)
}

func (m *MockAdminCommandUsecase) RequestDelete(ctx context.Context, requesterID, userID string) error {
	return m.record(entity.RoutingKeyUserDeleted, requesterID, userID)
}

func (m *MockAdminCommandUsecase) RequestReset(ctx context.Context, requesterID, userID string) error {
	return m.record(entity.RoutingKeyUserReset, requesterID, userID)
}
