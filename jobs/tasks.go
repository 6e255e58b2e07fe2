package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aegis-admin/aegis-admin/internal/directory"
	"github.com/aegis-admin/aegis-admin/internal/rbac"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPrune removes expired server-side session records.
	TaskSessionsPrune = "sessions:prune"
	// TaskAssignmentsSweep removes role assignments whose validity
	// window has closed.
	TaskAssignmentsSweep = "assignments:sweep"
)

// SessionsPrunePayload bounds a prune run.
type SessionsPrunePayload struct {
	// Limit caps how many records one run may delete; zero means no cap.
	Limit int `json:"limit,omitempty"`
}

// NewSessionsPruneTask constructs the prune task.
func NewSessionsPruneTask(payload SessionsPrunePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPrune, data), nil
}

// NewAssignmentsSweepTask constructs the sweep task.
func NewAssignmentsSweepTask() *asynq.Task {
	return asynq.NewTask(TaskAssignmentsSweep, nil)
}

// HandleSessionsPrune returns the handler for TaskSessionsPrune. The
// backend keeps session rows forever; the worker is the only thing
// that retires them. Records with unparseable expirations are left
// alone.
func HandleSessionsPrune(sessions *directory.Sessions, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionsPrunePayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}

		records, err := sessions.List(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		deleted := 0
		for _, rec := range records {
			if !rec.Expired(now) {
				continue
			}
			if payload.Limit > 0 && deleted >= payload.Limit {
				break
			}
			if err := sessions.Delete(ctx, rec.ID); err != nil {
				logger.Warn("prune session", slog.String("id", rec.ID), slog.Any("error", err))
				continue
			}
			deleted++
		}
		logger.Info("sessions pruned", slog.Int("scanned", len(records)), slog.Int("deleted", deleted))
		return nil
	}
}

// HandleAssignmentsSweep returns the handler for TaskAssignmentsSweep.
// It walks every user's assignments and removes only the ones whose end
// date has passed. Assignments scheduled to open in the future are
// inactive but not expired, and stay untouched.
func HandleAssignmentsSweep(users rbac.UserLister, service *rbac.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		list, err := users.List(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		removed := 0
		for _, user := range list {
			assignments, err := service.UserRoles(ctx, user.ID)
			if err != nil {
				logger.Warn("sweep: load assignments", slog.Int64("user_id", user.ID), slog.Any("error", err))
				continue
			}
			for _, assignment := range assignments {
				if !assignment.Expired(now) {
					continue
				}
				if err := service.RemoveRoleFromUser(ctx, user.ID, assignment.RoleID); err != nil {
					logger.Warn("sweep: remove assignment",
						slog.Int64("user_id", user.ID),
						slog.Int64("role_id", assignment.RoleID),
						slog.Any("error", err))
					continue
				}
				removed++
			}
		}
		logger.Info("assignments swept", slog.Int("users", len(list)), slog.Int("removed", removed))
		return nil
	}
}
