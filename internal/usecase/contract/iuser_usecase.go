package usecasecontract

import (
	"context"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

// ProfileInput is a self-service profile change; nil fields stay as they are.
type ProfileInput struct {
	Name     *string
	Username *string
	Email    *string
	Picture  *Upload
}

// IUserUseCase covers self-service and admin user management over HTTP.
type IUserUseCase interface {
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string, mode entity.StorageMode) (*entity.IssuedToken, error)
	DeleteAccount(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error)
	GetUserByID(ctx context.Context, userID string) (*entity.User, error)
	SearchUsers(ctx context.Context, search contract.UserSearch) ([]*entity.User, error)
	ResetUser(ctx context.Context, userID string) (*entity.User, error)
}

// IAdminCommandUseCase queues admin lifecycle commands for the consumer.
type IAdminCommandUseCase interface {
	RequestBulkRegistration(ctx context.Context, requesterID string, users []entity.CandidateUser) error
	RequestCreate(ctx context.Context, requesterID string, user entity.CandidateUser) error
	RequestDelete(ctx context.Context, requesterID, userID string) error
	RequestReset(ctx context.Context, requesterID, userID string) error
}

// IAdminMessageProcessor executes admin lifecycle commands taken off the queue. Results
// carry authorization and not-found failures; a returned error means the message could
// not be processed at all.
type IAdminMessageProcessor interface {
	ProcessBulkRegistration(ctx context.Context, msg entity.BulkRegistrationMessage) (*entity.BulkRegistrationResult, error)
	ProcessCreateUser(ctx context.Context, msg entity.CreateUserMessage) (*entity.CommandResult, error)
	ProcessDeleteUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error)
	ProcessResetUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error)
}
