// Package tasks implements the bot's scheduled tasks and their registration.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dsoares/relaybot/internal/config"
	"github.com/dsoares/relaybot/internal/database"
)

// ScheduledTaskFunc is the signature for all scheduled tasks. The context
// provided by the scheduler must be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}

// RegisterAllTasks returns the map of all registered scheduled tasks. The
// keys match the task names used in the config scheduler section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	taskMap := make(map[string]ScheduledTaskFunc)

	taskMap["sql_maintenance"] = newSQLMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(taskMap))
	return taskMap
}

// newSQLMaintenanceTask creates the task that runs database maintenance.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting SQL maintenance task")
		startTime := time.Now()

		if err := deps.Store.RunMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance task completed", "duration", time.Since(startTime))
		return nil
	}
}
