package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/aegis-admin/aegis-admin/internal/app"
	"github.com/aegis-admin/aegis-admin/internal/auth"
	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/identity"
	"github.com/aegis-admin/aegis-admin/internal/rbac"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
	"github.com/aegis-admin/aegis-admin/internal/view"
	"github.com/aegis-admin/aegis-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg, "aegis")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store := session.NewRedisStore(redisClient, cfg.SessionTTL)
	notifier := session.NewNotifier()
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	// Session transitions are observable; for now the subscription only
	// feeds the log.
	go func() {
		for user := range notifier.Subscribe() {
			if user == nil {
				logger.Info("session cleared")
				continue
			}
			logger.Info("session established", slog.String("email", user.Email))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	transport := backend.NewAuthTransport(nil, store, notifier, cfg.ExcludedPathPrefixes(), logger)
	apiClient := backend.NewClient(cfg.APIBaseURL, cfg.APITimeout, transport, logger)

	google := identity.NewGoogle(cfg.GoogleClientID)
	broker := identity.NewBroker(cfg.IdentityBrokerURL, cfg.APITimeout)
	authManager := auth.NewManager(cfg.APIBaseURL, cfg.APITimeout, store, notifier, google, broker, logger)
	authHandler := auth.NewHandler(logger, authManager, templates, store, csrfManager)

	users := directory.NewUsers(apiClient)
	directoryHandler := directory.NewHandler(directory.HandlerParams{
		Logger:     logger,
		Users:      users,
		Addresses:  directory.NewAddresses(apiClient),
		Devices:    directory.NewDevices(apiClient),
		Passwords:  directory.NewPasswords(apiClient),
		Questions:  directory.NewSecurityQuestions(apiClient),
		Answers:    directory.NewAnswers(apiClient),
		Signatures: directory.NewSignatures(apiClient),
		Sessions:   directory.NewSessions(apiClient),
		Templates:  templates,
		Store:      store,
		CSRF:       csrfManager,
	})

	rbacService := rbac.NewService(apiClient, logger)
	rbacHandler := rbac.NewHandler(logger, rbacService, rbac.NewDraft(), users, templates, store, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		Store:            store,
		CSRFManager:      csrfManager,
		AuthManager:      authManager,
		AuthHandler:      authHandler,
		DirectoryHandler: directoryHandler,
		RBACHandler:      rbacHandler,
		JobsHandler:      jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
