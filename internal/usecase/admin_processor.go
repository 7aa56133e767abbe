package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const (
	statusCreated       = "created"
	errUserExists       = "User already exists"
	errUserNotFound     = "User not found"
	errUnauthorizedVerb = "Unauthorized: Only administrators can %s"
)

// AdminProcessor executes admin lifecycle messages. The requester's user type is read
// from the store for every message; nothing about it is cached.
type AdminProcessor struct {
	userRepo      contract.IUserRepository
	users         usecasecontract.IUserUseCase
	uuidGenerator contract.IUUIDGenerator
	logger        usecasecontract.IAppLogger
	batchSize     int
	now           func() time.Time
}

var _ usecasecontract.IAdminMessageProcessor = (*AdminProcessor)(nil)

func NewAdminProcessor(
	userRepo contract.IUserRepository,
	users usecasecontract.IUserUseCase,
	uuidGenerator contract.IUUIDGenerator,
	logger usecasecontract.IAppLogger,
	cfg usecasecontract.IConfigProvider,
) *AdminProcessor {
	batchSize := cfg.GetBulkRegistrationBatchSize()
	if batchSize <= 0 {
		batchSize = 50
	}
	return &AdminProcessor{
		userRepo:      userRepo,
		users:         users,
		uuidGenerator: uuidGenerator,
		logger:        logger,
		batchSize:     batchSize,
		now:           time.Now,
	}
}

// isAdmin reports whether requesterID names an admin. Unknown requesters are not admins;
// store failures are returned so the message can be retried.
func (p *AdminProcessor) isAdmin(ctx context.Context, requesterID string) (bool, error) {
	if requesterID == "" {
		return false, nil
	}
	user, err := p.userRepo.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve requester %s: %w", requesterID, err)
	}
	return user.UserType == entity.UserTypeAdmin, nil
}

// ProcessBulkRegistration provisions candidates in batches. Candidates within a batch are
// created concurrently; a batch starts only after the previous one has finished.
// Per-candidate failures end up in Failed and never abort the rest.
func (p *AdminProcessor) ProcessBulkRegistration(ctx context.Context, msg entity.BulkRegistrationMessage) (*entity.BulkRegistrationResult, error) {
	result := &entity.BulkRegistrationResult{
		Successful: []entity.RegisteredUser{},
		Failed:     []entity.FailedRegistration{},
	}
	ok, err := p.isAdmin(ctx, msg.RequestedBy.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.logger.Warnf("bulk registration rejected: requester %q is not an admin", msg.RequestedBy.UserID)
		reason := fmt.Sprintf(errUnauthorizedVerb, "register users")
		for _, c := range msg.Users {
			result.Failed = append(result.Failed, entity.FailedRegistration{Username: c.Username, Name: c.Name, Error: reason})
		}
		result.Error = entity.BulkErrorUnauthorized
		return result, nil
	}

	for start := 0; start < len(msg.Users); start += p.batchSize {
		end := min(start+p.batchSize, len(msg.Users))
		batch := msg.Users[start:end]
		outcomes := make([]error, len(batch))

		var g errgroup.Group
		for i, candidate := range batch {
			i, candidate := i, candidate
			g.Go(func() error {
				outcomes[i] = p.createCandidate(ctx, candidate)
				return nil
			})
		}
		_ = g.Wait()

		for i, candidate := range batch {
			if outcomes[i] != nil {
				result.Failed = append(result.Failed, entity.FailedRegistration{
					Username: candidate.Username,
					Name:     candidate.Name,
					Error:    outcomes[i].Error(),
				})
				continue
			}
			result.Successful = append(result.Successful, entity.RegisteredUser{
				Username: strings.ToLower(strings.TrimSpace(candidate.Username)),
				Name:     strings.TrimSpace(candidate.Name),
				Status:   statusCreated,
			})
		}
	}
	p.logger.Infof("bulk registration: %d created, %d failed", len(result.Successful), len(result.Failed))
	return result, nil
}

func (p *AdminProcessor) ProcessCreateUser(ctx context.Context, msg entity.CreateUserMessage) (*entity.CommandResult, error) {
	ok, err := p.isAdmin(ctx, msg.RequestedBy.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &entity.CommandResult{Error: fmt.Sprintf(errUnauthorizedVerb, "create users")}, nil
	}
	if err := p.createCandidate(ctx, msg.User); err != nil {
		return &entity.CommandResult{Error: err.Error()}, nil
	}
	return &entity.CommandResult{Success: true, Message: "User created successfully"}, nil
}

func (p *AdminProcessor) ProcessDeleteUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error) {
	ok, err := p.isAdmin(ctx, msg.RequestedBy.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &entity.CommandResult{Error: fmt.Sprintf(errUnauthorizedVerb, "delete users")}, nil
	}
	if err := p.users.DeleteAccount(ctx, msg.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &entity.CommandResult{Error: errUserNotFound}, nil
		}
		return nil, err
	}
	return &entity.CommandResult{Success: true, Message: "User deleted successfully"}, nil
}

func (p *AdminProcessor) ProcessResetUser(ctx context.Context, msg entity.UserCommandMessage) (*entity.CommandResult, error) {
	ok, err := p.isAdmin(ctx, msg.RequestedBy.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &entity.CommandResult{Error: fmt.Sprintf(errUnauthorizedVerb, "reset users")}, nil
	}
	if _, err := p.users.ResetUser(ctx, msg.UserID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return &entity.CommandResult{Error: errUserNotFound}, nil
		}
		return nil, err
	}
	return &entity.CommandResult{Success: true, Message: "User reset successfully"}, nil
}

// createCandidate inserts an inactive local account awaiting its owner's claim. The
// returned error text is what the admin sees.
func (p *AdminProcessor) createCandidate(ctx context.Context, c entity.CandidateUser) error {
	username := strings.ToLower(strings.TrimSpace(c.Username))
	if username == "" {
		return apperror.Validation("Username is required")
	}
	if usesForeignEmail(username, "") {
		return apperror.Validation(errForeignEmail)
	}
	name, err := validateName(c.Name)
	if err != nil {
		return err
	}
	userType := c.UserType
	if userType == "" {
		userType = entity.UserTypeStudent
	}
	if !userType.Valid() {
		return apperror.Validation(fmt.Sprintf("Invalid userType %q", c.UserType))
	}

	now := p.now()
	user := &entity.User{
		ID:        p.uuidGenerator.NewUUID(),
		Name:      name,
		Username:  username,
		Provider:  entity.ProviderLocal,
		UserType:  userType,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch userType {
	case entity.UserTypeStudent:
		user.StudentDetails = &entity.StudentDetails{GradYear: c.GradYear, AdmissionNumber: c.AdmissionNumber}
	case entity.UserTypeAlumni:
		user.AlumniDetails = &entity.AlumniDetails{GradYear: c.GradYear}
	}

	if err := p.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict(errUserExists)
		}
		p.logger.Errorf("failed to create user %s: %v", username, err)
		return apperror.New(apperror.ErrInternal, "Failed to create user")
	}
	return nil
}
