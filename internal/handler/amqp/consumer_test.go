package amqp

import (
	"context"
	"errors"
	"testing"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/logger"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcessor records what it was asked to do.
type fakeProcessor struct {
	ShouldFail bool

	bulk    *entity.BulkRegistrationMessage
	create  *entity.CreateUserMessage
	deleted *entity.UserCommandMessage
	reset   *entity.UserCommandMessage
}

func (p *fakeProcessor) ProcessBulkRegistration(ctx context.Context, msg entity.BulkRegistrationMessage) (*entity.BulkRegistrationResult, error) {
	if p.ShouldFail {
		return nil, errors.New("store down")
	}
	p.bulk = &msg
	res := &entity.BulkRegistrationResult{Successful: []entity.RegisteredUser{}, Failed: []entity.FailedRegistration{}}
	for _, u := range msg.Users {
		res.Successful = append(res.Successful, entity.RegisteredUser{Username: u.Username, Name: u.Name, Status: "created"})
	}
	return res, nil
}

func (p *fakeProcessor) ProcessCreateUser(ctx context.Context, msg entity.CreateUserMessage) (*entity.CommandResult, error) {
	p.create = &msg
	return &entity.CommandResult{Success: true}, nil
}

func (p *fakeProcessor) ProcessDeleteUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error) {
	if p.ShouldFail {
		return nil, errors.New("store down")
	}
	p.deleted = &msg
	return &entity.CommandResult{Error: "User not found"}, nil
}

func (p *fakeProcessor) ProcessResetUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error) {
	p.reset = &msg
	return &entity.CommandResult{Success: true}, nil
}

func newConsumer() (*AdminConsumer, *fakeProcessor) {
	p := &fakeProcessor{}
	return NewAdminConsumer(p, logger.NewNop()), p
}

func TestHandle_BulkRegistration(t *testing.T) {
	c, p := newConsumer()

	result, err := c.Handle(context.Background(), messaging.Delivery{
		RoutingKey: entity.RoutingKeyBulkRegistration,
		Body:       []byte(`{"users":[{"username":"21je0001","name":"Ada","userType":"student","gradYear":2026}],"requestedBy":{"userId":"admin-1"}}`),
	})

	require.NoError(t, err)
	require.NotNil(t, p.bulk)
	assert.Equal(t, "admin-1", p.bulk.RequestedBy.UserID)
	assert.Equal(t, 2026, p.bulk.Users[0].GradYear)
	res := result.(*entity.BulkRegistrationResult)
	assert.Len(t, res.Successful, 1)
}

func TestHandle_CommandsAcceptBareRequester(t *testing.T) {
	c, p := newConsumer()

	_, err := c.Handle(context.Background(), messaging.Delivery{
		RoutingKey: entity.RoutingKeyUserDeleted,
		Body:       []byte(`{"userId":"u-9","requestedBy":"admin-1"}`),
	})
	require.NoError(t, err)
	require.NotNil(t, p.deleted)
	assert.Equal(t, "u-9", p.deleted.UserID)
	assert.Equal(t, "admin-1", p.deleted.RequestedBy.UserID)

	_, err = c.Handle(context.Background(), messaging.Delivery{
		RoutingKey: entity.RoutingKeyUserReset,
		Body:       []byte(`{"userId":"u-9","requestedBy":{"userId":"admin-1"}}`),
	})
	require.NoError(t, err)
	require.NotNil(t, p.reset)
	assert.Equal(t, "admin-1", p.reset.RequestedBy.UserID)

	_, err = c.Handle(context.Background(), messaging.Delivery{
		RoutingKey: entity.RoutingKeyUserCreated,
		Body:       []byte(`{"user":{"username":"prof1","name":"Prof","userType":"professor"},"requestedBy":"admin-1"}`),
	})
	require.NoError(t, err)
	require.NotNil(t, p.create)
	assert.Equal(t, entity.UserTypeProfessor, p.create.User.UserType)
}

func TestHandle_UnknownRoutingKey(t *testing.T) {
	c, _ := newConsumer()

	result, err := c.Handle(context.Background(), messaging.Delivery{RoutingKey: "user.promoted", Body: []byte(`{}`)})

	require.NoError(t, err)
	res := result.(*entity.CommandResult)
	assert.False(t, res.Success)
	assert.Equal(t, "Unhandled routing key: user.promoted", res.Error)
}

func TestHandle_MalformedPayloadIsAFailureResult(t *testing.T) {
	c, p := newConsumer()

	result, err := c.Handle(context.Background(), messaging.Delivery{RoutingKey: entity.RoutingKeyUserDeleted, Body: []byte(`not json`)})

	require.NoError(t, err)
	assert.Nil(t, p.deleted)
	assert.Contains(t, result.(*entity.CommandResult).Error, "Invalid message payload")
}

func TestHandle_ProcessingErrorIsReturned(t *testing.T) {
	c, p := newConsumer()
	p.ShouldFail = true

	result, err := c.Handle(context.Background(), messaging.Delivery{
		RoutingKey: entity.RoutingKeyUserDeleted,
		Body:       []byte(`{"userId":"u-9","requestedBy":"admin-1"}`),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
}
