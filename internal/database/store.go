package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by GetBotState when no record exists for the
// requested app ID.
var ErrNotFound = errors.New("bot state not found")

// Store defines the persistence operations the bot needs. Methods accept
// context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetBotState retrieves the state record for an app ID.
	// Returns ErrNotFound when no record exists.
	GetBotState(ctx context.Context, appID string) (*BotState, error)

	// SaveBotState inserts or updates the state record.
	SaveBotState(ctx context.Context, state *BotState) error

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetBotState(ctx context.Context, appID string) (*BotState, error) {
	if appID == "" {
		return nil, fmt.Errorf("app ID must not be empty")
	}

	var state BotState
	query := `SELECT app_id, owner_online, assistant_mode, last_qr_payload, created_at, updated_at
              FROM bot_state WHERE app_id = ?`
	if err := s.db.GetContext(ctx, &state, query, appID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Error loading bot state", "app_id", appID, "error", err)
		return nil, fmt.Errorf("failed to load bot state for %q: %w", appID, err)
	}

	return &state, nil
}

func (s *sqlxStore) SaveBotState(ctx context.Context, state *BotState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil bot state")
	}
	if state.AppID == "" {
		return fmt.Errorf("bot state must have a non-empty app_id")
	}

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	query := `
        INSERT INTO bot_state (app_id, owner_online, assistant_mode, last_qr_payload, created_at, updated_at)
        VALUES (:app_id, :owner_online, :assistant_mode, :last_qr_payload, :created_at, :updated_at)
        ON CONFLICT(app_id) DO UPDATE SET
            owner_online    = excluded.owner_online,
            assistant_mode  = excluded.assistant_mode,
            last_qr_payload = excluded.last_qr_payload,
            updated_at      = excluded.updated_at;
    `
	if _, err := s.db.NamedExecContext(ctx, query, state); err != nil {
		s.logger.ErrorContext(ctx, "Error saving bot state", "app_id", state.AppID, "error", err)
		return fmt.Errorf("failed to save bot state for %q: %w", state.AppID, err)
	}

	return nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running database maintenance")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE;"); err != nil {
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}

	return nil
}
