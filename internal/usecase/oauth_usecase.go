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
	oauthStateTTL   = 10 * time.Minute
	oauthStateBytes = 32
)

// OAuthUseCase bridges provider sign-in to a session token. The storage mode the client
// asked for at the start of the redirect travels server-side under the state nonce.
type OAuthUseCase struct {
	providers       map[entity.Provider]contract.IOAuthProvider
	states          contract.IOAuthStateStore
	userRepo        contract.IUserRepository
	issuer          usecasecontract.ITokenIssuer
	randomGenerator contract.IRandomGenerator
	uuidGenerator   contract.IUUIDGenerator
	logger          usecasecontract.IAppLogger
	now             func() time.Time
}

var _ usecasecontract.IOAuthUseCase = (*OAuthUseCase)(nil)

// NewOAuthUseCase registers the configured providers; unconfigured ones are simply left out.
func NewOAuthUseCase(
	providers []contract.IOAuthProvider,
	states contract.IOAuthStateStore,
	userRepo contract.IUserRepository,
	issuer usecasecontract.ITokenIssuer,
	randomGenerator contract.IRandomGenerator,
	uuidGenerator contract.IUUIDGenerator,
	logger usecasecontract.IAppLogger,
) *OAuthUseCase {
	byName := make(map[entity.Provider]contract.IOAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Provider()] = p
	}
	return &OAuthUseCase{
		providers:       byName,
		states:          states,
		userRepo:        userRepo,
		issuer:          issuer,
		randomGenerator: randomGenerator,
		uuidGenerator:   uuidGenerator,
		logger:          logger,
		now:             time.Now,
	}
}

func (uc *OAuthUseCase) IsConfigured(provider entity.Provider) bool {
	_, ok := uc.providers[provider]
	return ok
}

// Begin stores a fresh state nonce and returns the provider consent URL.
func (uc *OAuthUseCase) Begin(ctx context.Context, provider entity.Provider, mode entity.StorageMode) (string, error) {
	p, ok := uc.providers[provider]
	if !ok {
		return "", apperror.New(apperror.ErrUnavailable, fmt.Sprintf("%s login is not configured", provider.DisplayName()))
	}
	if !mode.Valid() {
		return "", apperror.Validation(fmt.Sprintf("unsupported storage mode %q", mode))
	}
	state, err := uc.randomGenerator.GenerateRandomToken(oauthStateBytes)
	if err != nil {
		return "", err
	}
	if err := uc.states.Save(ctx, state, entity.OAuthState{Provider: provider, StorageMode: mode}, oauthStateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

// Complete validates the returned state, resolves the provider identity to a user and
// issues a token in the storage mode recorded by Begin.
func (uc *OAuthUseCase) Complete(ctx context.Context, provider entity.Provider, code, state string) (*entity.IssuedToken, error) {
	p, ok := uc.providers[provider]
	if !ok {
		return nil, apperror.New(apperror.ErrUnavailable, fmt.Sprintf("%s login is not configured", provider.DisplayName()))
	}
	invalidState := apperror.Unauthenticated("Invalid or expired OAuth state")
	if state == "" {
		return nil, invalidState
	}
	saved, err := uc.states.Consume(ctx, state)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalidState
		}
		return nil, err
	}
	if saved.Provider != provider {
		return nil, invalidState
	}
	if code == "" {
		return nil, apperror.Validation("Authorization code not provided")
	}

	profile, err := p.FetchProfile(ctx, code)
	if err != nil {
		uc.logger.Errorf("%s profile fetch failed: %v", provider, err)
		return nil, err
	}
	if profile.Email == "" {
		return nil, apperror.Validation(fmt.Sprintf("No email found from %s profile", provider.DisplayName()))
	}

	user, err := uc.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	return uc.issuer.Issue(user, saved.StorageMode)
}

// resolveUser finds the account owning the profile email. An account of another provider
// is moved to this one (last provider wins); a missing account is created active and
// without a password.
func (uc *OAuthUseCase) resolveUser(ctx context.Context, profile *entity.OAuthProfile) (*entity.User, error) {
	email := strings.ToLower(profile.Email)
	picture := entity.ProfilePicture{URL: profile.PictureURL}

	user, err := uc.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Provider == profile.Provider && user.ProviderID != nil && *user.ProviderID == profile.ProviderID {
			return user, nil
		}
		uc.logger.Infof("user %s switched from %s to %s sign-in", user.ID, user.Provider, profile.Provider)
		return uc.userRepo.LinkProvider(ctx, user.ID, profile.Provider, profile.ProviderID, picture)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if len([]rune(name)) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	providerID := profile.ProviderID
	now := uc.now()
	user = &entity.User{
		ID:             uc.uuidGenerator.NewUUID(),
		Name:           name,
		Username:       email,
		Email:          email,
		Provider:       profile.Provider,
		ProviderID:     &providerID,
		UserType:       entity.DefaultUserType(),
		Active:         true,
		ProfilePicture: picture,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Infof("user %s created from %s profile", user.ID, profile.Provider)
	return user, nil
}
