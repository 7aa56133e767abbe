package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/handler/http/dto"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
)

const msgQueued = "Request accepted and queued for processing"

// UserHandlerInterface defines the methods for user handler to allow interface-based dependency injection (for testing/mocking)
type UserHandlerInterface interface {
	UpdateProfile(*gin.Context)
	ChangePassword(*gin.Context)
	DeleteAccount(*gin.Context)
	ListUsers(*gin.Context)
	GetUser(*gin.Context)
	SearchUsers(*gin.Context)
	ResetUser(*gin.Context)
	BulkRegister(*gin.Context)
	CreateUser(*gin.Context)
	DeleteUser(*gin.Context)
	QueueReset(*gin.Context)
}

// Ensure UserHandler implements UserHandlerInterface
var _ UserHandlerInterface = (*UserHandler)(nil)

type UserHandler struct {
	userUsecase  usecasecontract.IUserUseCase
	adminUsecase usecasecontract.IAdminCommandUseCase
	config       usecasecontract.IConfigProvider
}

func NewUserHandler(userUsecase usecasecontract.IUserUseCase, adminUsecase usecasecontract.IAdminCommandUseCase, config usecasecontract.IConfigProvider) *UserHandler {
	return &UserHandler{
		userUsecase:  userUsecase,
		adminUsecase: adminUsecase,
		config:       config,
	}
}

// UpdateProfile handles updating the caller's profile, with an optional new picture
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := BindForm(c, &req); err != nil {
		return
	}
	picture, err := upload(c, profilePictureForm)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer picture.Close()

	updated, err := h.userUsecase.UpdateProfile(c.Request.Context(), user.ID, usecasecontract.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Picture:  picture.toUpload(),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessHandler(c, http.StatusOK, dto.UserEnvelope{Success: true, User: dto.ToUserResponse(updated)})
}

// ChangePassword re-issues the token in the caller's storage mode
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	mode, ok := storageMode(c, h.config.GetDefaultStorageMode())
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	issued, err := h.userUsecase.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword, mode)
	if err != nil {
		HandleError(c, err)
		return
	}
	writeIssued(c, http.StatusOK, issued)
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.userUsecase.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		HandleError(c, err)
		return
	}
	clearTokenCookie(c, h.config.IsProduction())
	MessageHandler(c, http.StatusOK, "Account deleted successfully")
}

// ListUsers handles the paginated admin listing
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	users, total, err := h.userUsecase.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessHandler(c, http.StatusOK, dto.UserListResponse{
		Success: true,
		Count:   len(users),
		Total:   total,
		Page:    page,
		Limit:   limit,
		Users:   dto.ToAdminUserResponses(users),
	})
}

// GetUser handles retrieving user by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userUsecase.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessHandler(c, http.StatusOK, dto.UserEnvelope{Success: true, User: dto.ToAdminUserResponse(user)})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	var req dto.SearchUsersRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	id := req.MongoID
	if id == "" {
		id = req.ID
	}
	users, err := h.userUsecase.SearchUsers(c.Request.Context(), contract.UserSearch{
		ID:              id,
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		AdmissionNumber: req.AdmissionNumber,
		GradYear:        req.GradYear,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessHandler(c, http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"users":   dto.ToAdminUserResponses(users),
	})
}

// ResetUser is the synchronous admin reset
func (h *UserHandler) ResetUser(c *gin.Context) {
	user, err := h.userUsecase.ResetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessHandler(c, http.StatusOK, dto.UserEnvelope{Success: true, User: dto.ToAdminUserResponse(user)})
}

// BulkRegister queues a bulk registration for the consumer
func (h *UserHandler) BulkRegister(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.BulkRegisterRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	if err := h.adminUsecase.RequestBulkRegistration(c.Request.Context(), admin.ID, dto.ToCandidates(req.Users)); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusAccepted, msgQueued)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CandidateRequest
	if err := BindAndValidate(c, &req); err != nil {
		return
	}
	if err := h.adminUsecase.RequestCreate(c.Request.Context(), admin.ID, req.ToEntity()); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusAccepted, msgQueued)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.adminUsecase.RequestDelete(c.Request.Context(), admin.ID, c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusAccepted, msgQueued)
}

// QueueReset hands the reset of :id to the consumer instead of running it inline
func (h *UserHandler) QueueReset(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.adminUsecase.RequestReset(c.Request.Context(), admin.ID, c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	MessageHandler(c, http.StatusAccepted, msgQueued)
}
