package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikiasgoitom/gatekeeper/internal/domain/contract"
	"github.com/mikiasgoitom/gatekeeper/internal/domain/entity"
	amqphandler "github.com/mikiasgoitom/gatekeeper/internal/handler/amqp"
	handlerHttp "github.com/mikiasgoitom/gatekeeper/internal/handler/http"
	redisclient "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/cache"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/config"
	database "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/database"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/external_services"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/jwt"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/logger"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/messaging"
	passwordservice "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/password_service"
	randomgenerator "github.com/mikiasgoitom/gatekeeper/internal/infrastructure/random_generator"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/repository/mongodb"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/store"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/uuidgen"
	"github.com/mikiasgoitom/gatekeeper/internal/infrastructure/validator"
	"github.com/mikiasgoitom/gatekeeper/internal/usecase"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.New(appConfig.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	appLogger := logger.NewZapLogger(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Establish MongoDB connection
	mongoClient, err := database.NewMongoDBClient(ctx, appConfig.MongoURI, appConfig.MongoDBName)
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(closeCtx)
	}()

	// Dependency Injection: Repositories
	userRepo := mongodb.NewMongoUserRepository(mongoClient.Collection("users"))
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		appLogger.Fatalf("Failed to create user indexes: %v", err)
	}

	// OAuth state lives in Redis when available, otherwise in a TTL-indexed collection
	var stateStore contract.IOAuthStateStore
	if appConfig.RedisURL != "" {
		rdb, err := redisclient.NewRedisClient(ctx, appConfig.RedisURL)
		if err != nil {
			appLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer func() { _ = rdb.Close() }()
		stateStore = store.NewOAuthStateStore(rdb)
	} else {
		stateRepo := mongodb.NewOAuthStateRepository(mongoClient.Collection("oauth_states"))
		if err := stateRepo.EnsureIndexes(ctx); err != nil {
			appLogger.Fatalf("Failed to create oauth state indexes: %v", err)
		}
		stateStore = stateRepo
	}

	// Dependency Injection: Services
	hasher := passwordservice.NewHasher()
	jwtManager := jwt.NewJWTManager(appConfig.JWTSecret, appConfig.GetJWTExpiry())
	randomGenerator := randomgenerator.NewRandomGenerator()
	uuidGenerator := uuidgen.NewGenerator()
	appValidator := validator.NewValidator()
	mailService := external_services.NewEmailService(
		appConfig.SMTP.Host, appConfig.SMTP.Port, appConfig.SMTP.Username, appConfig.SMTP.Password, appConfig.SMTP.From,
	)

	var media contract.IMediaStorage = external_services.DisabledMediaStorage{}
	if appConfig.CloudinaryURL != "" {
		cld, err := external_services.NewCloudinaryStorage(appConfig.CloudinaryURL)
		if err != nil {
			appLogger.Fatalf("Failed to configure Cloudinary: %v", err)
		}
		media = cld
	} else {
		appLogger.Warnf("CLOUDINARY_URL not set, profile picture uploads are disabled")
	}

	var providers []contract.IOAuthProvider
	if c := appConfig.Google; c.Configured() {
		providers = append(providers, external_services.NewGoogleProvider(c.ClientID, c.ClientSecret, appConfig.AppBaseURL))
	}
	if c := appConfig.GitHub; c.Configured() {
		providers = append(providers, external_services.NewGitHubProvider(c.ClientID, c.ClientSecret, appConfig.AppBaseURL))
	}
	if c := appConfig.LinkedIn; c.Configured() {
		providers = append(providers, external_services.NewLinkedInProvider(c.ClientID, c.ClientSecret, appConfig.AppBaseURL))
	}
	for _, p := range providers {
		appLogger.Infof("%s sign-in enabled, callback %s", p.Provider().DisplayName(), external_services.CallbackURL(appConfig.AppBaseURL, p.Provider()))
	}

	// Optional message broker for admin commands
	var publisher contract.IMessagePublisher
	var broker *messaging.Client
	if appConfig.RabbitMQURL != "" {
		broker = messaging.NewClient(appLogger, appConfig.RabbitMQPrefetch)
		if err := broker.Connect(ctx, appConfig.RabbitMQURL); err != nil {
			appLogger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer func() { _ = broker.Close() }()
		if err := broker.DeclareTopology(); err != nil {
			appLogger.Fatalf("Failed to declare RabbitMQ topology: %v", err)
		}
		publisher = broker
	} else {
		appLogger.Warnf("RABBITMQ_URL not set, queued admin commands are unavailable")
	}

	// Dependency Injection: Usecases
	issuer := usecase.NewTokenIssuer(jwtManager, appConfig)
	activationUsecase := usecase.NewActivationUseCase(userRepo, mailService, external_services.EmailTemplates{}, hasher, randomGenerator, appValidator, appLogger, appConfig)
	authUsecase := usecase.NewAuthUseCase(userRepo, issuer, activationUsecase, media, hasher, appValidator, uuidGenerator, appLogger)
	oauthUsecase := usecase.NewOAuthUseCase(providers, stateStore, userRepo, issuer, randomGenerator, uuidGenerator, appLogger)
	userUsecase := usecase.NewUserUsecase(userRepo, issuer, media, hasher, appValidator, appLogger)
	adminUsecase := usecase.NewAdminCommandUseCase(publisher, appLogger)

	g, gctx := errgroup.WithContext(ctx)

	if broker != nil {
		processor := usecase.NewAdminProcessor(userRepo, userUsecase, uuidGenerator, appLogger, appConfig)
		consumer := amqphandler.NewAdminConsumer(processor, appLogger)
		for _, queue := range []string{entity.QueueUser, entity.QueueBulkRegistration} {
			queue := queue
			g.Go(func() error {
				err := broker.Consume(gctx, queue, consumer.Handle)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}

	// Register custom validators
	validator.RegisterCustomValidators()

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Setup API routes
	appRouter := handlerHttp.NewRouter(
		authUsecase, activationUsecase, oauthUsecase, userUsecase, adminUsecase,
		appConfig, appLogger,
		handlerHttp.RouterOptions{
			ClientURL:          appConfig.ClientURL,
			RateLimitPerSecond: appConfig.RateLimitPerSecond,
			Logger:             zapLogger,
		},
	)
	appRouter.SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		zapLogger.Info("server listening", zap.String("port", appConfig.Port), zap.String("env", appConfig.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zapLogger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("server stopped", zap.Error(err))
	}
}
