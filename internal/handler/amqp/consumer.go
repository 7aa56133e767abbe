package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/messaging"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/metrics"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// AdminConsumer routes admin lifecycle messages to the processor by routing key.
type AdminConsumer struct {
	processor usecasecontract.IAdminMessageProcessor
	logger    usecasecontract.IAppLogger
}

func NewAdminConsumer(processor usecasecontract.IAdminMessageProcessor, logger usecasecontract.IAppLogger) *AdminConsumer {
	return &AdminConsumer{processor: processor, logger: logger}
}

// Handle is a messaging.Handler. Authorization, not-found and malformed-payload outcomes
// come back as failure results; only processing errors are returned.
func (c *AdminConsumer) Handle(ctx context.Context, d messaging.Delivery) (any, error) {
	result, err := c.dispatch(ctx, d)
	switch {
	case err != nil:
		c.logger.Errorf("admin message %s failed (redelivered=%t): %v", d.RoutingKey, d.Redelivered, err)
		metrics.AdminMessages.WithLabelValues(d.RoutingKey, metrics.ResultError).Inc()
		return nil, err
	case succeeded(result):
		metrics.AdminMessages.WithLabelValues(d.RoutingKey, metrics.ResultSuccess).Inc()
	default:
		c.logger.Warnf("admin message %s rejected: %s", d.RoutingKey, describe(result))
		metrics.AdminMessages.WithLabelValues(d.RoutingKey, metrics.ResultFailure).Inc()
	}
	return result, nil
}

func (c *AdminConsumer) dispatch(ctx context.Context, d messaging.Delivery) (any, error) {
	switch d.RoutingKey {
	case entity.RoutingKeyBulkRegistration:
		var msg entity.BulkRegistrationMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return malformed(err), nil
		}
		return c.processor.ProcessBulkRegistration(ctx, msg)
	case entity.RoutingKeyUserCreated:
		var msg entity.CreateUserMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return malformed(err), nil
		}
		return c.processor.ProcessCreateUser(ctx, msg)
	case entity.RoutingKeyUserDeleted:
		var msg entity.UserCommandMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return malformed(err), nil
		}
		return c.processor.ProcessDeleteUser(ctx, msg)
	case entity.RoutingKeyUserReset:
		var msg entity.UserCommandMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return malformed(err), nil
		}
		return c.processor.ProcessResetUser(ctx, msg)
	default:
		return &entity.CommandResult{Error: "Unhandled routing key: " + d.RoutingKey}, nil
	}
}

func malformed(err error) *entity.CommandResult {
	return &entity.CommandResult{Error: fmt.Sprintf("Invalid message payload: %v", err)}
}

func succeeded(result any) bool {
	switch r := result.(type) {
	case *entity.CommandResult:
		return r.Success
	case *entity.BulkRegistrationResult:
		return r.Error == ""
	}
	return false
}

func describe(result any) string {
	switch r := result.(type) {
	case *entity.CommandResult:
		return r.Error
	case *entity.BulkRegistrationResult:
		return r.Error
	}
	return "unknown result"
}
