package usecase

import (
	"fmt"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const errNotAuthorized = "Not authorized to access this route"

// TokenIssuer signs session tokens and picks their delivery for a storage mode.
type TokenIssuer struct {
	jwtService JWTService
	config     usecasecontract.IConfigProvider
}

var _ usecasecontract.ITokenIssuer = (*TokenIssuer)(nil)

func NewTokenIssuer(jwtService JWTService, cfg usecasecontract.IConfigProvider) *TokenIssuer {
	return &TokenIssuer{jwtService: jwtService, config: cfg}
}

// Issue signs a token for user. Cookie mode keeps the token out of the response body;
// local and session modes hand it to the client.
func (i *TokenIssuer) Issue(user *entity.User, mode entity.StorageMode) (*entity.IssuedToken, error) {
	if !mode.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unsupported storage mode %q", mode))
	}
	token, expires, err := i.jwtService.Sign(user.ID, user.UserType)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	var delivery entity.TokenDelivery
	switch mode {
	case entity.StorageCookie:
		delivery = entity.CookieDelivery{Token: token, Expires: expires, Secure: i.config.IsProduction()}
	default:
		delivery = entity.BearerDelivery{Token: token, Mode: mode}
	}
	return &entity.IssuedToken{User: user, Delivery: delivery}, nil
}

func (i *TokenIssuer) ParseToken(token string) (*entity.Claims, error) {
	if token == "" {
		return nil, apperror.Unauthenticated(errNotAuthorized)
	}
	claims, err := i.jwtService.Verify(token)
	if err != nil {
		return nil, apperror.Unauthenticated(errNotAuthorized)
	}
	return claims, nil
}
