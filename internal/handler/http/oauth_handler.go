package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/metrics"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// OAuthHandler runs the browser side of the provider redirect. It never answers JSON
// from the callback: every outcome is a redirect to the client.
type OAuthHandler struct {
	oauthUsecase usecasecontract.IOAuthUseCase
	config       usecasecontract.IConfigProvider
	logger       usecasecontract.IAppLogger
}

func NewOAuthHandler(oauthUsecase usecasecontract.IOAuthUseCase, config usecasecontract.IConfigProvider, logger usecasecontract.IAppLogger) *OAuthHandler {
	return &OAuthHandler{
		oauthUsecase: oauthUsecase,
		config:       config,
		logger:       logger,
	}
}

// HandleLogin redirects to the consent page of the :provider in the path.
func (h *OAuthHandler) HandleLogin(c *gin.Context) {
	provider, ok := entity.ParseOAuthProvider(c.Param("provider"))
	if !ok {
		h.redirectError(c, apperror.NotFound("Unknown sign-in provider"))
		return
	}
	mode, err := entity.ParseStorageMode(c.Query("storage"), h.config.GetDefaultStorageMode())
	if err != nil {
		h.redirectError(c, err)
		return
	}
	consentURL, err := h.oauthUsecase.Begin(c.Request.Context(), provider, mode)
	if err != nil {
		h.redirectError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, consentURL)
}

// HandleCallback finishes the redirect and hands the token to the client.
func (h *OAuthHandler) HandleCallback(c *gin.Context) {
	provider, ok := entity.ParseOAuthProvider(c.Param("provider"))
	if !ok {
		h.redirectError(c, apperror.NotFound("Unknown sign-in provider"))
		return
	}
	if denied := c.Query("error"); denied != "" {
		reason := c.Query("error_description")
		if reason == "" {
			reason = denied
		}
		metrics.ObserveLogin(string(provider), false)
		h.redirectError(c, apperror.Unauthenticated(fmt.Sprintf("%s sign-in was cancelled: %s", provider.DisplayName(), reason)))
		return
	}

	issued, err := h.oauthUsecase.Complete(c.Request.Context(), provider, c.Query("code"), c.Query("state"))
	metrics.ObserveLogin(string(provider), err == nil)
	if err != nil {
		h.logger.Warnf("%s callback failed: %v", provider, err)
		h.redirectError(c, err)
		return
	}

	target := h.config.GetClientURL() + "/auth/success"
	switch d := issued.Delivery.(type) {
	case entity.CookieDelivery:
		setTokenCookie(c, d)
	case entity.BearerDelivery:
		q := url.Values{}
		q.Set("token", d.Token)
		q.Set("storage", string(d.Mode))
		target += "?" + q.Encode()
	}
	c.Redirect(http.StatusFound, target)
}

// HandleSSO forwards /auth/sso?provider=x&storage=y to the provider start route.
func (h *OAuthHandler) HandleSSO(c *gin.Context) {
	provider, ok := entity.ParseOAuthProvider(c.Query("provider"))
	if !ok {
		ErrorHandler(c, http.StatusBadRequest, "Invalid SSO provider")
		return
	}
	target := strings.TrimSuffix(c.Request.URL.Path, "/sso") + "/" + string(provider)
	if storage := c.Query("storage"); storage != "" {
		target += "?" + url.Values{"storage": {storage}}.Encode()
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func (h *OAuthHandler) redirectError(c *gin.Context, err error) {
	q := url.Values{}
	q.Set("message", apperror.Message(err))
	c.Redirect(http.StatusFound, h.config.GetClientURL()+"/auth/error?"+q.Encode())
}
