package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// emailed tokens are 32 random bytes, hex encoded
const linkTokenBytes = 32

// ActivationUseCase issues, mails and redeems the activation and password reset tokens.
// Only the sha256 of a token is stored; the plain token lives in the emailed link.
type ActivationUseCase struct {
	userRepo        contract.IUserRepository
	emailService    contract.IEmailService
	composer        contract.IEmailComposer
	hasher          contract.IHasher
	randomGenerator contract.IRandomGenerator
	validator       usecasecontract.IValidator
	logger          usecasecontract.IAppLogger
	config          usecasecontract.IConfigProvider
	now             func() time.Time
}

var _ usecasecontract.IActivationUseCase = (*ActivationUseCase)(nil)

func NewActivationUseCase(
	userRepo contract.IUserRepository,
	emailService contract.IEmailService,
	composer contract.IEmailComposer,
	hasher contract.IHasher,
	randomGenerator contract.IRandomGenerator,
	validator usecasecontract.IValidator,
	logger usecasecontract.IAppLogger,
	cfg usecasecontract.IConfigProvider,
) *ActivationUseCase {
	return &ActivationUseCase{
		userRepo:        userRepo,
		emailService:    emailService,
		composer:        composer,
		hasher:          hasher,
		randomGenerator: randomGenerator,
		validator:       validator,
		logger:          logger,
		config:          cfg,
		now:             time.Now,
	}
}

// SendActivation overwrites any previous activation token of user and mails the
// set-password link.
func (uc *ActivationUseCase) SendActivation(ctx context.Context, user *entity.User) error {
	if user.Email == "" {
		return apperror.Validation("User has no email address")
	}
	expiry := uc.config.GetActivationTokenExpiry()
	plain, hash, err := uc.newLinkToken()
	if err != nil {
		return err
	}
	if err := uc.userRepo.SetActivationToken(ctx, user.ID, hash, uc.now().Add(expiry)); err != nil {
		return fmt.Errorf("store activation token: %w", err)
	}

	subject, body, err := uc.composer.ActivationEmail(contract.LinkEmail{
		Name:      user.Name,
		Link:      uc.link("/set-password", plain),
		ExpiresIn: formatExpiry(expiry),
	})
	if err == nil {
		err = uc.emailService.SendEmail(ctx, user.Email, subject, body)
	}
	if err != nil {
		uc.logger.Errorf("failed to send activation email to user %s: %v", user.ID, err)
		if clearErr := uc.userRepo.ClearActivationToken(ctx, hash); clearErr != nil {
			uc.logger.Warnf("failed to clear activation token of user %s: %v", user.ID, clearErr)
		}
		return apperror.Upstream("Activation email could not be sent")
	}
	return nil
}

// ResendActivation reissues the link of a pending account. Unknown, active or email-less
// accounts are ignored so the response does not reveal which usernames exist.
func (uc *ActivationUseCase) ResendActivation(ctx context.Context, username string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return apperror.Validation("Please provide a username")
	}
	user, err := uc.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.Active || user.Email == "" {
		uc.logger.Debugf("skipping activation resend for user %s", user.ID)
		return nil
	}
	return uc.SendActivation(ctx, user)
}

// SetPassword redeems an activation token: the account gets its password, becomes active
// and local, and the token is gone.
func (uc *ActivationUseCase) SetPassword(ctx context.Context, token, newPassword string) (*entity.User, error) {
	hash, hashedPassword, err := uc.prepareRedeem(token, newPassword)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.ConsumeActivationToken(ctx, hash, hashedPassword, uc.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			if clearErr := uc.userRepo.ClearActivationToken(ctx, hash); clearErr != nil {
				uc.logger.Warnf("failed to clear stale activation token: %v", clearErr)
			}
			return nil, apperror.Validation("Invalid or expired activation token")
		}
		return nil, err
	}
	uc.logger.Infof("user %s activated", user.ID)
	return user, nil
}

// ForgotPassword mails a reset link to active local accounts. Every other case returns
// nil so callers always answer the same way.
func (uc *ActivationUseCase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := uc.validator.ValidateEmail(email); err != nil {
		return apperror.Validation("Please add a valid email")
	}
	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}
	if user.Provider != entity.ProviderLocal || !user.Active {
		uc.logger.Debugf("skipping password reset for user %s", user.ID)
		return nil
	}

	expiry := uc.config.GetPasswordResetTokenExpiry()
	plain, hash, err := uc.newLinkToken()
	if err != nil {
		return err
	}
	if err := uc.userRepo.SetResetToken(ctx, user.ID, hash, uc.now().Add(expiry)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	subject, body, err := uc.composer.PasswordResetEmail(contract.LinkEmail{
		Name:      user.Name,
		Link:      uc.link("/reset-password", plain),
		ExpiresIn: formatExpiry(expiry),
	})
	if err == nil {
		err = uc.emailService.SendEmail(ctx, user.Email, subject, body)
	}
	if err != nil {
		uc.logger.Errorf("failed to send reset email to user %s: %v", user.ID, err)
		if clearErr := uc.userRepo.ClearResetToken(ctx, hash); clearErr != nil {
			uc.logger.Warnf("failed to clear reset token of user %s: %v", user.ID, clearErr)
		}
		return apperror.Upstream("Password reset email could not be sent")
	}
	return nil
}

func (uc *ActivationUseCase) ResetPassword(ctx context.Context, token, newPassword string) (*entity.User, error) {
	hash, hashedPassword, err := uc.prepareRedeem(token, newPassword)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.ConsumeResetToken(ctx, hash, hashedPassword, uc.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			if clearErr := uc.userRepo.ClearResetToken(ctx, hash); clearErr != nil {
				uc.logger.Warnf("failed to clear stale reset token: %v", clearErr)
			}
			return nil, apperror.Validation("Invalid or expired reset token")
		}
		return nil, err
	}
	uc.logger.Infof("password reset for user %s", user.ID)
	return user, nil
}

func (uc *ActivationUseCase) prepareRedeem(token, newPassword string) (hash, hashedPassword string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", apperror.Validation("Token is required")
	}
	if err := uc.validator.ValidatePasswordStrength(newPassword); err != nil {
		return "", "", apperror.Validation(err.Error())
	}
	hashedPassword, err = uc.hasher.HashPassword(newPassword)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return uc.hasher.HashString(token), hashedPassword, nil
}

func (uc *ActivationUseCase) newLinkToken() (plain, hash string, err error) {
	plain, err = uc.randomGenerator.GenerateRandomToken(linkTokenBytes)
	if err != nil {
		return "", "", err
	}
	return plain, uc.hasher.HashString(plain), nil
}

func (uc *ActivationUseCase) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", uc.config.GetClientURL(), path, url.QueryEscape(token))
}

// formatExpiry renders 24h as "24 hours" and 90m as "90 minutes".
func formatExpiry(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int64(d/time.Hour), "hour")
	}
	return plural(int64(d/time.Minute), "minute")
}
