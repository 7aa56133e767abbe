package external_services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
)

const (
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	githubAPIBase       = "https://api.github.com"
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"
)

// OAuthClient runs the authorization-code flow for one provider and turns the provider's
// user endpoint into an entity.OAuthProfile.
type OAuthClient struct {
	provider entity.Provider
	config   *oauth2.Config
	apiURL   string
	fetch    func(ctx context.Context, c *OAuthClient, client *http.Client) (*entity.OAuthProfile, error)
}

var _ contract.IOAuthProvider = (*OAuthClient)(nil)

// CallbackURL is where a provider sends the browser back to.
func CallbackURL(baseURL string, p entity.Provider) string {
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), p)
}

func NewGoogleProvider(clientID, clientSecret, baseURL string) *OAuthClient {
	return &OAuthClient{
		provider: entity.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(baseURL, entity.ProviderGoogle),
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		apiURL: googleUserInfoURL,
		fetch:  fetchOpenIDProfile,
	}
}

func NewGitHubProvider(clientID, clientSecret, baseURL string) *OAuthClient {
	return &OAuthClient{
		provider: entity.ProviderGitHub,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(baseURL, entity.ProviderGitHub),
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: githubAPIBase,
		fetch:  fetchGitHubProfile,
	}
}

func NewLinkedInProvider(clientID, clientSecret, baseURL string) *OAuthClient {
	return &OAuthClient{
		provider: entity.ProviderLinkedIn,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  CallbackURL(baseURL, entity.ProviderLinkedIn),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     linkedin.Endpoint,
		},
		apiURL: linkedinUserInfoURL,
		fetch:  fetchOpenIDProfile,
	}
}

func (c *OAuthClient) Provider() entity.Provider {
	return c.provider
}

func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// FetchProfile exchanges the code and reads the signed-in user's identity.
func (c *OAuthClient) FetchProfile(ctx context.Context, code string) (*entity.OAuthProfile, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("failed to exchange %s authorization code", c.provider.DisplayName()))
	}
	return c.fetch(ctx, c, c.config.Client(ctx, token))
}

// openIDUserInfo is the standard claims set returned by Google and LinkedIn.
type openIDUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Picture       string `json:"picture"`
}

func fetchOpenIDProfile(ctx context.Context, c *OAuthClient, client *http.Client) (*entity.OAuthProfile, error) {
	var info openIDUserInfo
	if err := getJSON(ctx, client, c.apiURL, &info); err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("failed to fetch %s profile: %v", c.provider.DisplayName(), err))
	}
	email := info.Email
	if info.EmailVerified != nil && !*info.EmailVerified {
		email = ""
	}
	return &entity.OAuthProfile{
		Provider:   c.provider,
		ProviderID: info.Sub,
		Name:       info.Name,
		Email:      strings.ToLower(email),
		PictureURL: info.Picture,
	}, nil
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// fetchGitHubProfile falls back to /user/emails because /user only shows a public email.
func fetchGitHubProfile(ctx context.Context, c *OAuthClient, client *http.Client) (*entity.OAuthProfile, error) {
	var u githubUser
	if err := getJSON(ctx, client, c.apiURL+"/user", &u); err != nil {
		return nil, apperror.Upstream(fmt.Sprintf("failed to fetch GitHub profile: %v", err))
	}
	email := u.Email
	if email == "" {
		var emails []githubEmail
		if err := getJSON(ctx, client, c.apiURL+"/user/emails", &emails); err != nil {
			return nil, apperror.Upstream(fmt.Sprintf("failed to fetch GitHub emails: %v", err))
		}
		email = primaryVerifiedEmail(emails)
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &entity.OAuthProfile{
		Provider:   entity.ProviderGitHub,
		ProviderID: strconv.FormatInt(u.ID, 10),
		Name:       name,
		Email:      strings.ToLower(email),
		PictureURL: u.AvatarURL,
	}, nil
}

func primaryVerifiedEmail(emails []githubEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
