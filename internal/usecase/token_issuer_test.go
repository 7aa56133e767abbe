package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/jwt"
)

func TestTokenIssuer_CookieModeKeepsTokenInCookie(t *testing.T) {
	cfg := testConfig()
	issuer := NewTokenIssuer(jwt.NewJWTManager("secret", time.Hour), cfg)
	user := &entity.User{ID: "u-1", UserType: entity.UserTypeAdmin}

	issued, err := issuer.Issue(user, entity.StorageCookie)
	require.NoError(t, err)

	cookie, ok := issued.Delivery.(entity.CookieDelivery)
	require.True(t, ok)
	assert.NotEmpty(t, cookie.Token)
	assert.False(t, cookie.Secure)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cookie.Expires, 5*time.Second)

	claims, err := issuer.ParseToken(cookie.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, entity.UserTypeAdmin, claims.UserType)
}

func TestTokenIssuer_SecureCookieInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	issued, err := NewTokenIssuer(jwt.NewJWTManager("secret", time.Hour), cfg).Issue(&entity.User{ID: "u-1"}, entity.StorageCookie)
	require.NoError(t, err)
	assert.True(t, issued.Delivery.(entity.CookieDelivery).Secure)
}

func TestTokenIssuer_BearerModes(t *testing.T) {
	issuer := NewTokenIssuer(jwt.NewJWTManager("secret", time.Hour), testConfig())
	for _, mode := range []entity.StorageMode{entity.StorageLocal, entity.StorageSession} {
		issued, err := issuer.Issue(&entity.User{ID: "u-1"}, mode)
		require.NoError(t, err)
		bearer, ok := issued.Delivery.(entity.BearerDelivery)
		require.True(t, ok, mode)
		assert.Equal(t, mode, bearer.Mode)
		assert.NotEmpty(t, bearer.Token)
	}
}

func TestTokenIssuer_RejectsUnknownMode(t *testing.T) {
	issuer := NewTokenIssuer(jwt.NewJWTManager("secret", time.Hour), testConfig())
	_, err := issuer.Issue(&entity.User{ID: "u-1"}, entity.StorageMode("indexeddb"))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTokenIssuer_ParseTokenFailures(t *testing.T) {
	issuer := NewTokenIssuer(jwt.NewJWTManager("secret", time.Hour), testConfig())

	_, err := issuer.ParseToken("")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	foreign, _, err := jwt.NewJWTManager("other", time.Hour).Sign("u-1", entity.UserTypeAdmin)
	require.NoError(t, err)
	_, err = issuer.ParseToken(foreign)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
