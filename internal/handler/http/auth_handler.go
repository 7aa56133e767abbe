package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/apperror"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/handler/http/dto"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/metrics"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const (
	msgActivationSent  = "Activation link sent to your email. Please check your inbox to set your password."
	msgResendAccepted  = "If the account is awaiting activation, a new link has been sent"
	msgForgotAccepted  = "If an account with that email exists, a password reset link has been sent"
	profilePictureForm = "profilePicture"
)

// AuthHandlerInterface lists the /auth endpoints for interface-based wiring in tests.
type AuthHandlerInterface interface {
	Register(*gin.Context)
	Login(*gin.Context)
	Logout(*gin.Context)
	Me(*gin.Context)
	SetPassword(*gin.Context)
	ResendActivation(*gin.Context)
	ForgotPassword(*gin.Context)
	ResetPassword(*gin.Context)
}

var _ AuthHandlerInterface = (*AuthHandler)(nil)

type AuthHandler struct {
	authUsecase       usecasecontract.IAuthUseCase
	activationUsecase usecasecontract.IActivationUseCase
	config            usecasecontract.IConfigProvider
}

func NewAuthHandler(authUsecase usecasecontract.IAuthUseCase, activationUsecase usecasecontract.IActivationUseCase, config usecasecontract.IConfigProvider) *AuthHandler {
	return &AuthHandler{
		authUsecase:       authUsecase,
		activationUsecase: activationUsecase,
		config:            config,
	}
}

// Register handles local sign-up and the claim of a pre-provisioned account.
func (h *AuthHandler) Register(c *gin.Context) {
	mode, ok := storageMode(c, h.config.GetDefaultStorageMode())
	if !ok {
		return
	}
	var req dto.RegisterRequest
	if err := BindForm(c, &req); err != nil {
		return
	}
	picture, err := upload(c, profilePictureForm)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer picture.Close()

	result, err := h.authUsecase.Register(c.Request.Context(), usecasecontract.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		UserType: entity.UserType(req.UserType),
		Picture:  picture.toUpload(),
	}, mode)
	if err != nil {
		HandleError(c, err)
		return
	}
	if result.Issued != nil {
		writeIssued(c, http.StatusCreated, result.Issued)
		return
	}
	MessageHandler(c, http.StatusCreated, msgActivationSent)
}

// Login handles password authentication by email or username
func (h *AuthHandler) Login(c *gin.Context) {
	mode, ok := storageMode(c, h.config.GetDefaultStorageMode())
	if !ok {
		return
	}
	var req dto.LoginRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}

	issued, err := h.authUsecase.Login(c.Request.Context(), req.ID(), req.Password, mode)
	metrics.ObserveLogin(string(entity.ProviderLocal), err == nil)
	if err != nil {
		HandleError(c, err)
		return
	}
	writeIssued(c, http.StatusOK, issued)
}

// Logout clears the token cookie. Bearer clients drop their stored token themselves.
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, err := c.Cookie(TokenCookieName); err == nil {
		clearTokenCookie(c, h.config.IsProduction())
	}
	MessageHandler(c, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	SuccessHandler(c, http.StatusOK, dto.UserEnvelope{Success: true, User: dto.ToMeResponse(user)})
}

func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req dto.TokenPasswordRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	if _, err := h.activationUsecase.SetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusOK, "Password set successfully. You can now log in.")
}

func (h *AuthHandler) ResendActivation(c *gin.Context) {
	var req dto.ResendActivationRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	// delivery failures answer like success
	if err := h.activationUsecase.ResendActivation(c.Request.Context(), req.Username); err != nil && errors.Is(err, apperror.ErrValidation) {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusOK, msgResendAccepted)
}

// ForgotPassword answers the same way whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	if err := h.activationUsecase.ForgotPassword(c.Request.Context(), req.Email); err != nil && errors.Is(err, apperror.ErrValidation) {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusOK, msgForgotAccepted)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.TokenPasswordRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	if _, err := h.activationUsecase.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusOK, "Password reset successfully")
}
