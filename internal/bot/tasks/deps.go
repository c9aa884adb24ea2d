// Package tasks implements scheduled background tasks for the assistant.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/kvasudev/sahayak/internal/config"
	"github.com/kvasudev/sahayak/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
