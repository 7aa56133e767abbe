package http_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func location(t *testing.T, header http.Header) *url.URL {
	t.Helper()
	u, err := url.Parse(header.Get("Location"))
	require.NoError(t, err)
	return u
}

func TestOAuthLogin_RedirectsToProvider(t *testing.T) {
	f := newFixture(entity.UserTypeUser)

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/google?storage=session", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "provider.example.com", location(t, w.Header()).Host)
	assert.Equal(t, entity.StorageSession, f.oauth.LastBeginMode)
}

func TestOAuthLogin_DefaultStorageMode(t *testing.T) {
	f := newFixture(entity.UserTypeUser)
	f.do(jsonRequest(t, http.MethodGet, "/auth/github", nil))
	assert.Equal(t, entity.StorageCookie, f.oauth.LastBeginMode)
}

func TestOAuthLogin_FailuresRedirectToClientError(t *testing.T) {
	f := newFixture(entity.UserTypeUser)

	for _, target := range []string{"/auth/linkedin", "/auth/facebook", "/auth/google?storage=indexeddb"} {
		w := f.do(jsonRequest(t, http.MethodGet, target, nil))

		assert.Equal(t, http.StatusFound, w.Code, target)
		loc := location(t, w.Header())
		assert.Equal(t, "app.example.com", loc.Host, target)
		assert.Equal(t, "/auth/error", loc.Path, target)
		assert.NotEmpty(t, loc.Query().Get("message"), target)
	}
}

func TestOAuthCallback_CookieMode(t *testing.T) {
	f := newFixture(entity.UserTypeUser)

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/google/callback?code=abc&state=xyz", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, clientURL+"/auth/success", w.Header().Get("Location"))
	cookie := tokenCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "mock_token", cookie.Value)
	assert.Equal(t, "abc", f.oauth.LastCode)
	assert.Equal(t, "xyz", f.oauth.LastState)
}

func TestOAuthCallback_BearerModeCarriesTokenInRedirect(t *testing.T) {
	f := newFixture(entity.UserTypeUser)
	f.oauth.CompleteMode = entity.StorageLocal

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/github/callback?code=abc&state=xyz", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	loc := location(t, w.Header())
	assert.Equal(t, "/auth/success", loc.Path)
	assert.Equal(t, "mock_token", loc.Query().Get("token"))
	assert.Equal(t, "local", loc.Query().Get("storage"))
	assert.Nil(t, tokenCookie(w))
}

func TestOAuthCallback_FailureRedirectsWithMessage(t *testing.T) {
	f := newFixture(entity.UserTypeUser)
	f.oauth.ShouldFailComplete = true

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/github/callback?code=abc&state=xyz", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	loc := location(t, w.Header())
	assert.Equal(t, "/auth/error", loc.Path)
	assert.Equal(t, "No email found from GitHub profile", loc.Query().Get("message"))
}

func TestOAuthCallback_ProviderDenied(t *testing.T) {
	f := newFixture(entity.UserTypeUser)

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/google/callback?error=access_denied", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/error", location(t, w.Header()).Path)
	assert.Empty(t, f.oauth.LastState, "the state is left alone")
}

func TestSSO(t *testing.T) {
	f := newFixture(entity.UserTypeUser)

	w := f.do(jsonRequest(t, http.MethodGet, "/auth/sso?provider=github&storage=local", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/auth/github?storage=local", w.Header().Get("Location"))

	w = f.do(jsonRequest(t, http.MethodGet, "/auth/sso?provider=myspace", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
