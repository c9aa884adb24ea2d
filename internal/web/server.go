// Package web exposes the HTTP control surface: a status page showing the
// pairing QR code or the current operating modes, toggle endpoints, and a
// liveness check. It renders state, it does not own any routing logic.
package web

import (
	"context"
	"encoding/base64"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/kvasudev/sahayak/internal/state"
	"github.com/kvasudev/sahayak/internal/whatsapp"
)

// StatusSource reports transport status for the page.
type StatusSource interface {
	IsConnected() bool
	State() whatsapp.ConnectionState
}

// Server is the control-surface HTTP server.
type Server struct {
	logger    *slog.Logger
	state     *state.Manager
	transport StatusSource
	srv       *http.Server
}

// New creates the control-surface server listening on addr.
func New(addr string, logger *slog.Logger, st *state.Manager, transport StatusSource) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		logger:    logger.With("component", "web"),
		state:     st,
		transport: transport,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/toggle_owner_status", s.handleToggleOwner)
	mux.HandleFunc("/toggle_personal_assistant", s.handleToggleAssistant)
	mux.HandleFunc("/ping", s.handlePing)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.withLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Handler exposes the configured handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// withLogging logs each request with method, path, and duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("Handled request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.state.Snapshot()

	if s.transport.IsConnected() {
		data := statusData{
			OwnerOnline:   snap.OwnerOnline,
			AssistantMode: snap.AssistantMode,
			Degraded:      s.state.Degraded(),
		}
		if err := statusTmpl.Execute(w, data); err != nil {
			s.logger.Error("Failed to render status page", "error", err)
		}
		return
	}

	data := pairData{
		State: string(s.transport.State()),
	}
	if snap.QRPayload != "" {
		png, err := qrcode.Encode(snap.QRPayload, qrcode.Medium, 256)
		if err != nil {
			s.logger.Error("Failed to encode QR payload", "error", err)
		} else {
			data.QRDataURI = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		}
	}
	if err := pairTmpl.Execute(w, data); err != nil {
		s.logger.Error("Failed to render pairing page", "error", err)
	}
}

func (s *Server) handleToggleOwner(w http.ResponseWriter, r *http.Request) {
	online := s.state.ToggleOwnerOnline(r.Context())
	s.logger.Info("Owner status toggled via web", "owner_online", online)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleToggleAssistant(w http.ResponseWriter, r *http.Request) {
	enabled := s.state.ToggleAssistantMode(r.Context())
	s.logger.Info("Assistant mode toggled via web", "assistant_mode", enabled)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("OK"))
}
