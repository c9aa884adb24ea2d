package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kvasudev/sahayak/internal/database"
	"github.com/kvasudev/sahayak/internal/state"
	"github.com/kvasudev/sahayak/internal/whatsapp"
)

type fakeStore struct {
	states map[string]database.BotState
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) GetBotState(_ context.Context, appID string) (*database.BotState, error) {
	st, ok := s.states[appID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &st, nil
}

func (s *fakeStore) SaveBotState(_ context.Context, st *database.BotState) error {
	s.states[st.AppID] = *st
	return nil
}

func (s *fakeStore) RunMaintenance(context.Context) error { return nil }

type fakeTransport struct {
	connected bool
	state     whatsapp.ConnectionState
}

func (t *fakeTransport) IsConnected() bool               { return t.connected }
func (t *fakeTransport) State() whatsapp.ConnectionState { return t.state }

func newTestServer(t *testing.T, connected bool) (*Server, *state.Manager) {
	t.Helper()

	st := state.NewManager(&fakeStore{states: make(map[string]database.BotState)}, nil, "test-app")
	st.Load(context.Background())

	transport := &fakeTransport{connected: connected, state: whatsapp.StateConnected}
	if !connected {
		transport.state = whatsapp.StateWaitingQR
	}

	return New(":0", nil, st, transport), st
}

func TestPing(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "OK")
	}
}

func TestIndexStatusPage(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t, true)
	st.SetAssistantMode(context.Background(), true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"toggle_owner_status", "toggle_personal_assistant", "ऑनलाइन", "चालू"} {
		if !strings.Contains(body, want) {
			t.Errorf("status page missing %q", want)
		}
	}
	if strings.Contains(body, "QR") {
		t.Error("status page should not show pairing instructions when connected")
	}
}

func TestIndexPairingPage(t *testing.T) {
	t.Parallel()

	t.Run("without payload", func(t *testing.T) {
		t.Parallel()

		srv, _ := newTestServer(t, false)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "QR code is not generated yet") {
			t.Error("pairing page should say the QR code is not ready")
		}
	})

	t.Run("with payload renders inline image", func(t *testing.T) {
		t.Parallel()

		srv, st := newTestServer(t, false)
		st.SetQRPayload(context.Background(), "2@abcdef,ghijkl,mnopqr")

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
			t.Error("pairing page should embed the QR code as a data URI")
		}
	})
}

func TestToggleEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("owner status", func(t *testing.T) {
		t.Parallel()

		srv, st := newTestServer(t, true)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/toggle_owner_status", nil))

		if rec.Code != http.StatusFound {
			t.Errorf("status = %d, want 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/" {
			t.Errorf("Location = %q, want /", loc)
		}
		if st.Snapshot().OwnerOnline {
			t.Error("toggle should have flipped owner to offline")
		}
	})

	t.Run("assistant mode", func(t *testing.T) {
		t.Parallel()

		srv, st := newTestServer(t, true)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/toggle_personal_assistant", nil))

		if rec.Code != http.StatusFound {
			t.Errorf("status = %d, want 302", rec.Code)
		}
		if !st.Snapshot().AssistantMode {
			t.Error("toggle should have enabled assistant mode")
		}
	})
}

func TestUnknownPath(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
