package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// Constants for common error messages
const (
	errInvalidCredentials = "Invalid credentials"
	errEmailTaken         = "Email already registered"
	errUsernameTaken      = "Username already taken"
	errForeignEmail       = "Username cannot be an email address other than your own"
	maxNameLength         = 50
	lastLoginTimeout      = 5 * time.Second
)

// AuthUseCase implements registration, password login and token authentication.
type AuthUseCase struct {
	userRepo      contract.IUserRepository
	issuer        usecasecontract.ITokenIssuer
	activation    usecasecontract.IActivationUseCase
	media         contract.IMediaStorage
	hasher        contract.IHasher
	validator     usecasecontract.IValidator
	uuidGenerator contract.IUUIDGenerator
	logger        usecasecontract.IAppLogger
	now           func() time.Time
}

// NewAuthUseCase creates a new AuthUseCase instance.
func NewAuthUseCase(
	userRepo contract.IUserRepository,
	issuer usecasecontract.ITokenIssuer,
	activation usecasecontract.IActivationUseCase,
	media contract.IMediaStorage,
	hasher contract.IHasher,
	validator usecasecontract.IValidator,
	uuidGenerator contract.IUUIDGenerator,
	logger usecasecontract.IAppLogger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:      userRepo,
		issuer:        issuer,
		activation:    activation,
		media:         media,
		hasher:        hasher,
		validator:     validator,
		uuidGenerator: uuidGenerator,
		logger:        logger,
		now:           time.Now,
	}
}

// check if AuthUseCase implements the IAuthUseCase
var _ usecasecontract.IAuthUseCase = (*AuthUseCase)(nil)

// Register handles both registration shapes. With a password it creates an active local
// account and signs it in. Without one it claims a pre-provisioned account and mails the
// set-password link.
func (uc *AuthUseCase) Register(ctx context.Context, in usecasecontract.RegisterInput, mode entity.StorageMode) (*usecasecontract.RegisterResult, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	in.Name = name
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if err := uc.validator.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Validation("Please add a valid email")
	}

	if in.Password == "" {
		user, err := uc.claimAccount(ctx, in)
		if err != nil {
			return nil, err
		}
		return &usecasecontract.RegisterResult{PendingActivation: user}, nil
	}
	issued, err := uc.signUp(ctx, in, mode)
	if err != nil {
		return nil, err
	}
	return &usecasecontract.RegisterResult{Issued: issued}, nil
}

func (uc *AuthUseCase) signUp(ctx context.Context, in usecasecontract.RegisterInput, mode entity.StorageMode) (*entity.IssuedToken, error) {
	if err := uc.validator.ValidatePasswordStrength(in.Password); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if in.Username == "" {
		in.Username = in.Email
	}
	if err := uc.validator.ValidateUsername(in.Username); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if usesForeignEmail(in.Username, in.Email) {
		return nil, apperror.Validation(errForeignEmail)
	}
	if err := ensureAvailable(ctx, uc.userRepo, in.Email, in.Username, ""); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.hasher.HashPassword(in.Password)
	if err != nil {
		uc.logger.Errorf("failed to hash password: %v", err)
		return nil, fmt.Errorf("failed to process password")
	}

	now := uc.now()
	user := &entity.User{
		ID:           uc.uuidGenerator.NewUUID(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		Provider:     entity.ProviderLocal,
		UserType:     entity.DefaultUserType(),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Picture != nil {
		picture, err := uc.media.Upload(ctx, in.Picture.Content, in.Picture.Filename)
		if err != nil {
			uc.logger.Warnf("profile picture upload failed during registration, continuing without it: %v", err)
		} else {
			user.ProfilePicture = picture
		}
	}

	if err := uc.userRepo.CreateUser(ctx, user); err != nil {
		uc.discardPicture(ctx, user.ProfilePicture)
		return nil, err
	}
	uc.logger.Infof("user %s registered", user.ID)

	user.PasswordHash = ""
	return uc.issuer.Issue(user, mode)
}

func (uc *AuthUseCase) claimAccount(ctx context.Context, in usecasecontract.RegisterInput) (*entity.User, error) {
	if in.Username == "" || !in.UserType.Valid() {
		return nil, apperror.Validation("Please provide username, name, userType and email")
	}
	notFound := apperror.NotFound("User not found with the provided details")

	user, err := uc.userRepo.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, notFound
		}
		return nil, err
	}
	if user.UserType != in.UserType || !strings.EqualFold(strings.TrimSpace(user.Name), in.Name) {
		return nil, notFound
	}
	if user.Active {
		return nil, apperror.Validation("User already verified")
	}
	if err := ensureAvailable(ctx, uc.userRepo, in.Email, "", user.ID); err != nil {
		return nil, err
	}

	updated, err := uc.userRepo.UpdateProfile(ctx, user.ID, contract.ProfileUpdate{Email: &in.Email})
	if err != nil {
		return nil, err
	}
	if err := uc.activation.SendActivation(ctx, updated); err != nil {
		previous := user.Email
		if _, restoreErr := uc.userRepo.UpdateProfile(ctx, user.ID, contract.ProfileUpdate{Email: &previous}); restoreErr != nil {
			uc.logger.Warnf("failed to release claimed email of user %s: %v", user.ID, restoreErr)
		}
		return nil, err
	}
	uc.logger.Infof("activation link sent to claimed account %s", updated.ID)
	return updated, nil
}

// Login checks a password against the account found by email or username. Every
// rejection carries the same message.
func (uc *AuthUseCase) Login(ctx context.Context, identifier, password string, mode entity.StorageMode) (*entity.IssuedToken, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, apperror.Validation("Please provide an email or username and password")
	}

	var user *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = uc.userRepo.GetUserWithPasswordByEmail(ctx, identifier)
	} else {
		user, err = uc.userRepo.GetUserWithPasswordByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated(errInvalidCredentials)
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, apperror.Unauthenticated(errInvalidCredentials)
	}
	if err := uc.hasher.ComparePasswordHash(password, user.PasswordHash); err != nil {
		return nil, apperror.Unauthenticated(errInvalidCredentials)
	}
	user.PasswordHash = ""

	issued, err := uc.issuer.Issue(user, mode)
	if err != nil {
		return nil, err
	}
	uc.touchLastLogin(ctx, user.ID)
	return issued, nil
}

// touchLastLogin records the login time off the request path. The write outlives the
// request context but not lastLoginTimeout; failures are only logged.
func (uc *AuthUseCase) touchLastLogin(ctx context.Context, userID string) {
	at := uc.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lastLoginTimeout)
		defer cancel()
		if err := uc.userRepo.TouchLastLogin(ctx, userID, at); err != nil {
			uc.logger.Warnf("failed to record last login of user %s: %v", userID, err)
		}
	}()
}

// Authenticate resolves a session token to the current state of its user.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := uc.issuer.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated(errNotAuthorized)
		}
		return nil, err
	}
	// an admin reset deactivates the account and with it every outstanding token
	if !user.Active {
		return nil, apperror.Unauthenticated(errNotAuthorized)
	}
	return user, nil
}

func (uc *AuthUseCase) GetUserByID(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetUserByID(ctx, userID)
}

func (uc *AuthUseCase) discardPicture(ctx context.Context, picture entity.ProfilePicture) {
	if picture.PublicID == "" {
		return
	}
	if err := uc.media.Delete(ctx, picture.PublicID); err != nil {
		uc.logger.Warnf("failed to delete orphaned picture %s: %v", picture.PublicID, err)
	}
}

// ensureAvailable fails with a conflict when email or username belongs to an account
// other than selfID. Empty values are not checked.
// ensureAvailable reports a conflict when email or username already identifies another
// account, as either its email or its username.
func ensureAvailable(ctx context.Context, repo contract.IUserRepository, email, username, selfID string) error {
	if email != "" {
		if taken, err := heldByOther(ctx, repo, email, selfID); err != nil {
			return err
		} else if taken {
			return apperror.Conflict(errEmailTaken)
		}
	}
	if username != "" {
		if taken, err := heldByOther(ctx, repo, username, selfID); err != nil {
			return err
		} else if taken {
			return apperror.Conflict(errUsernameTaken)
		}
	}
	return nil
}

func heldByOther(ctx context.Context, repo contract.IUserRepository, identifier, selfID string) (bool, error) {
	lookups := []func(context.Context, string) (*entity.User, error){repo.GetUserByUsername}
	if strings.Contains(identifier, "@") {
		lookups = append(lookups, repo.GetUserByEmail)
	}
	for _, lookup := range lookups {
		existing, err := lookup(ctx, identifier)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return false, err
		}
		if existing != nil && existing.ID != selfID {
			return true, nil
		}
	}
	return false, nil
}

// usesForeignEmail reports whether username looks like an email address but is not the
// account's own. Login routes identifiers containing "@" to the email field.
func usesForeignEmail(username, email string) bool {
	return strings.Contains(username, "@") && username != email
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation("Please add a name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.Validation(fmt.Sprintf("Name cannot be more than %d characters", maxNameLength))
	}
	return name, nil
}
