package usecase

import (
	"context"
	"strings"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// AdminCommandUseCase turns admin HTTP requests into queue messages. The consumer checks
// the requester again when it processes each message.
type AdminCommandUseCase struct {
	publisher contract.IMessagePublisher
	logger    usecasecontract.IAppLogger
}

var _ usecasecontract.IAdminCommandUseCase = (*AdminCommandUseCase)(nil)

// NewAdminCommandUseCase accepts a nil publisher when no broker is configured.
func NewAdminCommandUseCase(publisher contract.IMessagePublisher, logger usecasecontract.IAppLogger) *AdminCommandUseCase {
	return &AdminCommandUseCase{publisher: publisher, logger: logger}
}

func (uc *AdminCommandUseCase) RequestBulkRegistration(ctx context.Context, requesterID string, users []entity.CandidateUser) error {
	if len(users) == 0 {
		return apperror.Validation("Please provide a non-empty users array")
	}
	return uc.publish(ctx, entity.RoutingKeyBulkRegistration, entity.BulkRegistrationMessage{
		Users:       users,
		RequestedBy: entity.Requester{UserID: requesterID},
	})
}

func (uc *AdminCommandUseCase) RequestCreate(ctx context.Context, requesterID string, user entity.CandidateUser) error {
	if strings.TrimSpace(user.Username) == "" || strings.TrimSpace(user.Name) == "" {
		return apperror.Validation("Please provide username and name")
	}
	return uc.publish(ctx, entity.RoutingKeyUserCreated, entity.CreateUserMessage{
		User:        user,
		RequestedBy: entity.Requester{UserID: requesterID},
	})
}

func (uc *AdminCommandUseCase) RequestDelete(ctx context.Context, requesterID, userID string) error {
	return uc.publishCommand(ctx, entity.RoutingKeyUserDeleted, requesterID, userID)
}

func (uc *AdminCommandUseCase) RequestReset(ctx context.Context, requesterID, userID string) error {
	return uc.publishCommand(ctx, entity.RoutingKeyUserReset, requesterID, userID)
}

func (uc *AdminCommandUseCase) publishCommand(ctx context.Context, routingKey, requesterID, userID string) error {
	if userID == "" {
		return apperror.Validation("Please provide a user id")
	}
	return uc.publish(ctx, routingKey, entity.UserCommandMessage{
		UserID:      userID,
		RequestedBy: entity.Requester{UserID: requesterID},
	})
}

func (uc *AdminCommandUseCase) publish(ctx context.Context, routingKey string, payload any) error {
	if uc.publisher == nil {
		return apperror.New(apperror.ErrUnavailable, "Message broker is not configured")
	}
	if err := uc.publisher.Publish(ctx, routingKey, payload); err != nil {
		uc.logger.Errorf("failed to publish %s: %v", routingKey, err)
		return apperror.New(apperror.ErrUnavailable, "Message broker is unavailable")
	}
	uc.logger.Infof("published %s", routingKey)
	return nil
}
