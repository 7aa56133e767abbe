package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UserUsecase implements self-service profile management and the synchronous admin
// operations.
type UserUsecase struct {
	userRepo  contract.IUserRepository
	issuer    usecasecontract.ITokenIssuer
	media     contract.IMediaStorage
	hasher    contract.IHasher
	validator usecasecontract.IValidator
	logger    usecasecontract.IAppLogger
	now       func() time.Time
}

// NewUserUsecase creates a new UserUsecase instance.
func NewUserUsecase(
	userRepo contract.IUserRepository,
	issuer usecasecontract.ITokenIssuer,
	media contract.IMediaStorage,
	hasher contract.IHasher,
	validator usecasecontract.IValidator,
	logger usecasecontract.IAppLogger,
) *UserUsecase {
	return &UserUsecase{
		userRepo:  userRepo,
		issuer:    issuer,
		media:     media,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// check if UserUseCase implements the IUserUseCase
var _ usecasecontract.IUserUseCase = (*UserUsecase)(nil)

// UpdateProfile applies the given changes. A replaced picture's old asset is removed
// once the new one is stored.
func (uc *UserUsecase) UpdateProfile(ctx context.Context, userID string, in usecasecontract.ProfileInput) (*entity.User, error) {
	var update contract.ProfileUpdate
	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := uc.validator.ValidateEmail(email); err != nil {
			return nil, apperror.Validation("Please add a valid email")
		}
		update.Email = &email
	}
	if in.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*in.Username))
		if err := uc.validator.ValidateUsername(username); err != nil {
			return nil, apperror.Validation(err.Error())
		}
		update.Username = &username
	}
	if update.Name == nil && update.Email == nil && update.Username == nil && in.Picture == nil {
		return nil, apperror.Validation("No fields to update")
	}

	current, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// a username that mirrors the email follows it
	if update.Email != nil && update.Username == nil && current.Username == current.Email && *update.Email != current.Email {
		update.Username = update.Email
	}
	var email, username string
	finalEmail, finalUsername := current.Email, current.Username
	if update.Email != nil {
		email, finalEmail = *update.Email, *update.Email
	}
	if update.Username != nil {
		username, finalUsername = *update.Username, *update.Username
	}
	if update.Username != nil && usesForeignEmail(finalUsername, finalEmail) {
		return nil, apperror.Validation(errForeignEmail)
	}
	if err := ensureAvailable(ctx, uc.userRepo, email, username, userID); err != nil {
		return nil, err
	}

	if in.Picture != nil {
		picture, err := uc.media.Upload(ctx, in.Picture.Content, in.Picture.Filename)
		if err != nil {
			return nil, err
		}
		update.ProfilePicture = &picture
	}

	updated, err := uc.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if update.ProfilePicture != nil {
			uc.deletePicture(ctx, update.ProfilePicture.PublicID)
		}
		return nil, err
	}
	if update.ProfilePicture != nil && current.ProfilePicture.PublicID != "" {
		uc.deletePicture(ctx, current.ProfilePicture.PublicID)
	}
	return updated, nil
}

// ChangePassword verifies the current password of a local account, stores the new one
// and re-issues a token in the caller's storage mode.
func (uc *UserUsecase) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string, mode entity.StorageMode) (*entity.IssuedToken, error) {
	if currentPassword == "" || newPassword == "" {
		return nil, apperror.Validation("Please provide current and new password")
	}
	user, err := uc.userRepo.GetUserWithPasswordByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, apperror.Validation("Password change is only available for local accounts")
	}
	if err := uc.hasher.ComparePasswordHash(currentPassword, user.PasswordHash); err != nil {
		return nil, apperror.Unauthenticated("Current password is incorrect")
	}
	if err := uc.validator.ValidatePasswordStrength(newPassword); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	hashed, err := uc.hasher.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := uc.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return uc.issuer.Issue(user, mode)
}

// DeleteAccount removes the user and its stored picture.
func (uc *UserUsecase) DeleteAccount(ctx context.Context, userID string) error {
	removed, err := uc.userRepo.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	uc.deletePicture(ctx, removed.ProfilePicture.PublicID)
	uc.logger.Infof("user %s deleted", userID)
	return nil
}

func (uc *UserUsecase) ListUsers(ctx context.Context, page, limit int) ([]*entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return uc.userRepo.ListUsers(ctx, page, limit)
}

func (uc *UserUsecase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetUserByID(ctx, userID)
}

// SearchUsers requires at least one criterion and reports an empty result as not found.
func (uc *UserUsecase) SearchUsers(ctx context.Context, search contract.UserSearch) ([]*entity.User, error) {
	if search == (contract.UserSearch{}) {
		return nil, apperror.Validation("Provide at least one search field")
	}
	users, err := uc.userRepo.SearchUsers(ctx, search)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperror.NotFound("No users found")
	}
	return users, nil
}

// ResetUser wipes an account back to its provisioned shell: id, name, username, user
// type and graduation years survive; the account is inactive with no credentials.
func (uc *UserUsecase) ResetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.deletePicture(ctx, user.ProfilePicture.PublicID)

	reset := user.ResetCopy(uc.now())
	if err := uc.userRepo.ReplaceUser(ctx, reset); err != nil {
		return nil, err
	}
	uc.logger.Infof("user %s reset", userID)
	return reset, nil
}

func (uc *UserUsecase) deletePicture(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := uc.media.Delete(ctx, publicID); err != nil && !errors.Is(err, apperror.ErrUnavailable) {
		uc.logger.Warnf("failed to delete picture %s: %v", publicID, err)
	}
}
