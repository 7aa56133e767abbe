package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// TokenCookieName is the cookie that carries the session token in cookie mode.
const TokenCookieName = "token"

const (
	userKey     = "user"
	userIDKey   = "userID"
	userTypeKey = "userType"
)

// AuthMiddleWare resolves the session token from the Authorization header or, failing
// that, the token cookie. The user is loaded from the store on every request.
func AuthMiddleWare(auth usecasecontract.IAuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(userKey, user)
		c.Set(userIDKey, user.ID)
		c.Set(userTypeKey, user.UserType)
		c.Next()
	}
}

// RequireUserType lets the request through only for the given user types. It must run
// after AuthMiddleWare.
func RequireUserType(allowed ...entity.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperror.Unauthenticated("Not authorized to access this route"))
			return
		}
		if !slices.Contains(allowed, user.UserType) {
			abort(c, apperror.Forbidden("User type "+string(user.UserType)+" is not authorized to access this route"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleWare.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return cookie
	}
	return ""
}

func abort(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusOK {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": apperror.Message(err)})
}
