package state

import (
	"context"
	"errors"
	"testing"

	"github.com/kvasudev/sahayak/internal/database"
)

// fakeStore is an in-memory database.Store with switchable failure modes.
type fakeStore struct {
	states  map[string]database.BotState
	getErr  error
	saveErr error
	saves   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]database.BotState)}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) GetBotState(_ context.Context, appID string) (*database.BotState, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	st, ok := s.states[appID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &st, nil
}

func (s *fakeStore) SaveBotState(_ context.Context, st *database.BotState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.states[st.AppID] = *st
	return nil
}

func (s *fakeStore) RunMaintenance(context.Context) error { return nil }

func TestLoadMaterializesDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(store, nil, "app-1")

	m.Load(ctx)

	snap := m.Snapshot()
	if !snap.OwnerOnline {
		t.Error("default owner state should be online")
	}
	if snap.AssistantMode {
		t.Error("default assistant mode should be off")
	}
	if store.saves != 1 {
		t.Errorf("expected defaults written through on first load, saves = %d", store.saves)
	}
	if m.Degraded() {
		t.Error("manager should not be degraded after materializing defaults")
	}
}

func TestLoadReadsStoredState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	store.states["app-1"] = database.BotState{
		AppID:         "app-1",
		OwnerOnline:   false,
		AssistantMode: true,
		LastQRPayload: "stale-payload",
	}
	m := NewManager(store, nil, "app-1")

	m.Load(ctx)

	snap := m.Snapshot()
	if snap.OwnerOnline {
		t.Error("stored offline state should survive restart")
	}
	if !snap.AssistantMode {
		t.Error("stored assistant mode should survive restart")
	}
	if snap.QRPayload != "stale-payload" {
		t.Errorf("QRPayload = %q, want %q", snap.QRPayload, "stale-payload")
	}
}

func TestLoadStoreFailureDegrades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	m := NewManager(store, nil, "app-1")

	m.Load(ctx)

	if !m.Degraded() {
		t.Error("manager should be degraded after a load failure")
	}
	snap := m.Snapshot()
	if !snap.OwnerOnline || snap.AssistantMode {
		t.Errorf("degraded manager should run on defaults, got %+v", snap)
	}
}

func TestSetFlagsReportChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(newFakeStore(), nil, "app-1")
	m.Load(ctx)

	if m.SetOwnerOnline(ctx, true) {
		t.Error("setting owner online when already online should report no change")
	}
	if !m.SetOwnerOnline(ctx, false) {
		t.Error("setting owner offline should report a change")
	}
	if m.SetOwnerOnline(ctx, false) {
		t.Error("repeating the same value should report no change")
	}

	if !m.SetAssistantMode(ctx, true) {
		t.Error("enabling assistant mode should report a change")
	}
	if m.SetAssistantMode(ctx, true) {
		t.Error("re-enabling assistant mode should report no change")
	}
}

func TestFlagsPersistAcrossManagers(t *testing.T) {
	t.Parallel()

	combos := []struct {
		name      string
		online    bool
		assistant bool
	}{
		{name: "online assistant off", online: true, assistant: false},
		{name: "online assistant on", online: true, assistant: true},
		{name: "offline assistant off", online: false, assistant: false},
		{name: "offline assistant on", online: false, assistant: true},
	}

	for _, tc := range combos {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := newFakeStore()

			m1 := NewManager(store, nil, "app-1")
			m1.Load(ctx)
			m1.SetOwnerOnline(ctx, tc.online)
			m1.SetAssistantMode(ctx, tc.assistant)

			m2 := NewManager(store, nil, "app-1")
			m2.Load(ctx)

			snap := m2.Snapshot()
			if snap.OwnerOnline != tc.online || snap.AssistantMode != tc.assistant {
				t.Errorf("reloaded state = %+v, want online=%v assistant=%v", snap, tc.online, tc.assistant)
			}
		})
	}
}

func TestToggles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManager(newFakeStore(), nil, "app-1")
	m.Load(ctx)

	if m.ToggleOwnerOnline(ctx) {
		t.Error("first toggle from online should yield offline")
	}
	if !m.ToggleOwnerOnline(ctx) {
		t.Error("second toggle should yield online again")
	}

	if !m.ToggleAssistantMode(ctx) {
		t.Error("first assistant toggle should yield on")
	}
	if m.ToggleAssistantMode(ctx) {
		t.Error("second assistant toggle should yield off")
	}
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(store, nil, "app-1")
	m.Load(ctx)

	store.saveErr = errors.New("disk full")
	if !m.SetOwnerOnline(ctx, false) {
		t.Fatal("change should be reported even when the save fails")
	}
	if !m.Degraded() {
		t.Error("manager should be degraded after a failed save")
	}
	if m.Snapshot().OwnerOnline {
		t.Error("in-memory state should reflect the change")
	}

	// Recovery: the next successful save clears degraded mode.
	store.saveErr = nil
	m.SetAssistantMode(ctx, true)
	if m.Degraded() {
		t.Error("manager should recover after a successful save")
	}
}

func TestSetQRPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	m := NewManager(store, nil, "app-1")
	m.Load(ctx)
	savesAfterLoad := store.saves

	m.SetQRPayload(ctx, "payload-1")
	if got := m.Snapshot().QRPayload; got != "payload-1" {
		t.Errorf("QRPayload = %q, want %q", got, "payload-1")
	}
	if store.saves != savesAfterLoad+1 {
		t.Errorf("expected one save for the new payload, saves = %d", store.saves)
	}

	// Same payload again is a no-op.
	m.SetQRPayload(ctx, "payload-1")
	if store.saves != savesAfterLoad+1 {
		t.Errorf("repeated payload must not write, saves = %d", store.saves)
	}
}
