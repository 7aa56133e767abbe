package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/handler/http/dto"
	"github.com/mikiasgoitom/gatekeeper/internal/handler/http/middleware"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

// TokenCookieName is the cookie that carries the session token in cookie mode.
const TokenCookieName = middleware.TokenCookieName

// ErrorHandler centralizes error handling for HTTP responses
func ErrorHandler(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Success: false, Message: message})
}

// HandleError answers with the status and caller-safe message of err.
func HandleError(c *gin.Context, err error) {
	ErrorHandler(c, apperror.HTTPStatus(err), apperror.Message(err))
}

// SuccessHandler centralizes success responses
func SuccessHandler(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// MessageHandler centralizes message responses
func MessageHandler(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.MessageResponse{Success: true, Message: message})
}

// BindAndValidate binds JSON request and validates it
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		ErrorHandler(c, http.StatusBadRequest, err.Error())
		return err
	}
	return nil
}

// BindForm binds JSON or multipart/form bodies, picking the binder from Content-Type.
func BindForm(c *gin.Context, req interface{}) error {
	if err := c.ShouldBind(req); err != nil {
		ErrorHandler(c, http.StatusBadRequest, err.Error())
		return err
	}
	return nil
}

// storageMode reads ?storage= and falls back to the deployment default. An unknown value
// is answered with 400 and reported as not ok.
func storageMode(c *gin.Context, fallback entity.StorageMode) (entity.StorageMode, bool) {
	mode, err := entity.ParseStorageMode(c.Query("storage"), fallback)
	if err != nil {
		HandleError(c, err)
		return "", false
	}
	return mode, true
}

// writeIssued answers a successful sign-in. Cookie delivery sets the httpOnly cookie and
// leaves the token out of the body; bearer delivery puts it in the body.
func writeIssued(c *gin.Context, status int, issued *entity.IssuedToken) {
	resp := dto.AuthResponse{Success: true, User: dto.ToUserResponse(issued.User)}
	switch d := issued.Delivery.(type) {
	case entity.CookieDelivery:
		setTokenCookie(c, d)
	case entity.BearerDelivery:
		resp.Token = d.Token
	}
	c.JSON(status, resp)
}

func setTokenCookie(c *gin.Context, d entity.CookieDelivery) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     TokenCookieName,
		Value:    d.Token,
		Path:     "/",
		Expires:  d.Expires,
		HttpOnly: true,
		Secure:   d.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(c *gin.Context, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser returns the user the auth middleware resolved.
func currentUser(c *gin.Context) (*entity.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		HandleError(c, apperror.Unauthenticated("User not authenticated"))
		return nil, false
	}
	return user, true
}

// upload returns the optional file of a multipart field. A request without the field, or
// without a multipart body at all, yields nil.
func upload(c *gin.Context, field string) (*uploadFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperror.Validation("Invalid profile picture upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperror.Validation("Invalid profile picture upload")
	}
	return &uploadFile{name: fh.Filename, file: f}, nil
}

// uploadFile is an opened multipart file; a nil *uploadFile means no file was sent.
type uploadFile struct {
	name string
	file multipart.File
}

func (u *uploadFile) toUpload() *usecasecontract.Upload {
	if u == nil {
		return nil
	}
	return &usecasecontract.Upload{Filename: u.name, Content: u.file}
}

func (u *uploadFile) Close() {
	if u != nil {
		_ = u.file.Close()
	}
}
