package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/aegis-admin/aegis-admin/internal/app"
	"github.com/aegis-admin/aegis-admin/internal/backend"
	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/rbac"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/jobs"
)

// workerScope names the store slice holding the worker's service token.
// The worker has no browser, so the scope is fixed.
const workerScope = "worker"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	logger := app.NewLogger(cfg, "worker")

	store := session.NewMemoryStore()
	if cfg.APIServiceToken != "" {
		if err := store.Set(ctx, workerScope, session.KeyToken, cfg.APIServiceToken); err != nil {
			logger.Error("seed service token", slog.Any("error", err))
			os.Exit(1)
		}
	}

	notifier := session.NewNotifier()
	transport := backend.NewAuthTransport(nil, store, notifier, cfg.ExcludedPathPrefixes(), logger)
	apiClient := backend.NewClient(cfg.APIBaseURL, cfg.APITimeout, transport, logger)

	sessions := directory.NewSessions(apiClient)
	users := directory.NewUsers(apiClient)
	rbacService := rbac.NewService(apiClient, logger)

	pruneTask, err := jobs.NewSessionsPruneTask(jobs.SessionsPrunePayload{})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionsPrune, Handler: withScope(jobs.HandleSessionsPrune(sessions, logger))},
			{Type: jobs.TaskAssignmentsSweep, Handler: withScope(jobs.HandleAssignmentsSweep(users, rbacService, logger))},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: jobs.NewAssignmentsSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

// withScope stamps the fixed worker scope onto the task context so the
// request pipeline can find the service token.
func withScope(h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return h(session.ContextWithScope(ctx, workerScope), t)
	}
}
