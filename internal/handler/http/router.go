package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	"github.com/mikiasgoitom/gatekeeper/internal/handler/http/middleware"
	usecasecontract "github.com/mikiasgoitom/gatekeeper/internal/usecase/contract"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions carries the settings that shape the router but are not use cases.
type RouterOptions struct {
	ClientURL          string
	RateLimitPerSecond float64
	Logger             *zap.Logger
}

type Router struct {
	authHandler  *AuthHandler
	oauthHandler *OAuthHandler
	userHandler  *UserHandler
	authUsecase  usecasecontract.IAuthUseCase
	opts         RouterOptions
}

func NewRouter(
	authUsecase usecasecontract.IAuthUseCase,
	activationUsecase usecasecontract.IActivationUseCase,
	oauthUsecase usecasecontract.IOAuthUseCase,
	userUsecase usecasecontract.IUserUseCase,
	adminUsecase usecasecontract.IAdminCommandUseCase,
	config usecasecontract.IConfigProvider,
	logger usecasecontract.IAppLogger,
	opts RouterOptions,
) *Router {
	return &Router{
		authHandler:  NewAuthHandler(authUsecase, activationUsecase, config),
		oauthHandler: NewOAuthHandler(oauthUsecase, config, logger),
		userHandler:  NewUserHandler(userUsecase, adminUsecase, config),
		authUsecase:  authUsecase,
		opts:         opts,
	}
}

func (r *Router) SetupRoutes(router *gin.Engine) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{r.opts.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.Metrics())
	if r.opts.Logger != nil {
		router.Use(middleware.RequestLogger(r.opts.Logger))
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authenticated := middleware.AuthMiddleWare(r.authUsecase)
	adminOnly := middleware.RequireUserType(entity.UserTypeAdmin)

	// Public routes (no authentication required)
	auth := router.Group("/auth")
	if r.opts.RateLimitPerSecond > 0 {
		auth.Use(middleware.RateLimiter(r.opts.RateLimitPerSecond))
	}
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/set-password", r.authHandler.SetPassword)
		auth.POST("/resend-activation", r.authHandler.ResendActivation)
		auth.POST("/forgot-password", r.authHandler.ForgotPassword)
		auth.POST("/reset-password", r.authHandler.ResetPassword)

		auth.GET("/logout", authenticated, r.authHandler.Logout)
		auth.GET("/me", authenticated, r.authHandler.Me)

		// OAuth endpoints
		auth.GET("/sso", r.oauthHandler.HandleSSO)
		auth.GET("/:provider", r.oauthHandler.HandleLogin)
		auth.GET("/:provider/callback", r.oauthHandler.HandleCallback)
	}

	// Self-service routes
	users := router.Group("/users")
	users.Use(authenticated)
	{
		users.PUT("/profile", r.userHandler.UpdateProfile)
		users.PUT("/password", r.userHandler.ChangePassword)
		users.DELETE("", r.userHandler.DeleteAccount)
	}

	// Admin routes
	admin := users.Group("")
	admin.Use(adminOnly)
	{
		admin.GET("", r.userHandler.ListUsers)
		admin.GET("/:id", r.userHandler.GetUser)
		admin.POST("/getUserById", r.userHandler.SearchUsers)
		admin.PUT("/reset/:id", r.userHandler.ResetUser)
		admin.POST("/reset/:id", r.userHandler.QueueReset)
		admin.POST("/register", r.userHandler.BulkRegister)
		admin.POST("/create", r.userHandler.CreateUser)
		admin.DELETE("/:id", r.userHandler.DeleteUser)
	}
}
