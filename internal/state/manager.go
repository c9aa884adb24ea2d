// Package state owns the singleton BotState record: the presence flag, the
// assistant-mode flag, and the cached pairing payload. All mutation goes
// through one Manager, which persists every change before reporting it, so a
// command acknowledgement is never sent for state that could be lost.
package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/kvasudev/sahayak/internal/database"
)

// Snapshot is a read-only copy of the current bot state.
type Snapshot struct {
	OwnerOnline   bool
	AssistantMode bool
	QRPayload     string
}

// Manager serializes access to the bot state. Persistence is best-effort:
// when the store is unreachable the bot keeps running on in-memory state and
// save failures are logged, never surfaced to message handling.
type Manager struct {
	store  database.Store
	logger *slog.Logger
	appID  string

	mu       sync.Mutex
	current  database.BotState
	degraded bool
}

// NewManager creates a Manager for one bot identity. Call Load before use.
func NewManager(store database.Store, logger *slog.Logger, appID string) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		store:  store,
		logger: logger.With("component", "state_manager"),
		appID:  appID,
		current: database.BotState{
			AppID:       appID,
			OwnerOnline: true,
		},
	}
}

// Load reads the stored state on cold start. A missing record is materialized
// with defaults (owner online, assistant mode off) via a write-through. A
// store failure leaves the manager on in-memory defaults in degraded mode.
func (m *Manager) Load(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.store.GetBotState(ctx, m.appID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			m.logger.InfoContext(ctx, "No stored bot state, materializing defaults", "app_id", m.appID)
			m.persistLocked(ctx)
			return
		}
		m.degraded = true
		m.logger.WarnContext(ctx, "Failed to load bot state, continuing with in-memory defaults",
			"app_id", m.appID, "error", err)
		return
	}

	m.current = *stored
	m.degraded = false
	m.logger.InfoContext(ctx, "Bot state loaded",
		"app_id", m.appID,
		"owner_online", m.current.OwnerOnline,
		"assistant_mode", m.current.AssistantMode)
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		OwnerOnline:   m.current.OwnerOnline,
		AssistantMode: m.current.AssistantMode,
		QRPayload:     m.current.LastQRPayload,
	}
}

// Degraded reports whether the last store interaction failed.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// SetOwnerOnline sets the presence flag and persists it. The returned value
// reports whether the flag actually changed.
func (m *Manager) SetOwnerOnline(ctx context.Context, online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.OwnerOnline == online {
		return false
	}
	m.current.OwnerOnline = online
	m.persistLocked(ctx)
	return true
}

// SetAssistantMode sets the assistant-mode flag and persists it. The returned
// value reports whether the flag actually changed.
func (m *Manager) SetAssistantMode(ctx context.Context, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.AssistantMode == enabled {
		return false
	}
	m.current.AssistantMode = enabled
	m.persistLocked(ctx)
	return true
}

// ToggleOwnerOnline flips the presence flag and returns the new value.
func (m *Manager) ToggleOwnerOnline(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.OwnerOnline = !m.current.OwnerOnline
	m.persistLocked(ctx)
	return m.current.OwnerOnline
}

// ToggleAssistantMode flips the assistant-mode flag and returns the new value.
func (m *Manager) ToggleAssistantMode(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.AssistantMode = !m.current.AssistantMode
	m.persistLocked(ctx)
	return m.current.AssistantMode
}

// SetQRPayload caches the latest pairing payload and persists it.
func (m *Manager) SetQRPayload(ctx context.Context, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.LastQRPayload == payload {
		return
	}
	m.current.LastQRPayload = payload
	m.persistLocked(ctx)
}

// persistLocked writes the current state through to the store. Callers must
// hold m.mu. Failures flip the manager into degraded mode but are otherwise
// swallowed: in-memory state stays authoritative.
func (m *Manager) persistLocked(ctx context.Context) {
	toSave := m.current
	if err := m.store.SaveBotState(ctx, &toSave); err != nil {
		m.degraded = true
		m.logger.WarnContext(ctx, "Failed to persist bot state, keeping in-memory value",
			"app_id", m.appID, "error", err)
		return
	}
	m.current.CreatedAt = toSave.CreatedAt
	m.current.UpdatedAt = toSave.UpdatedAt
	m.degraded = false
}
