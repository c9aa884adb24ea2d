// Package bot implements the core assistant functionality, lifecycle
// management, and component orchestration.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/kvasudev/sahayak/internal/config"
	"github.com/kvasudev/sahayak/internal/database"
	"github.com/kvasudev/sahayak/internal/router"
	"github.com/kvasudev/sahayak/internal/web"
	"github.com/kvasudev/sahayak/internal/whatsapp"
)

// Bot represents the main application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	store     database.Store
	wa        *whatsapp.Client
	router    *router.Router
	web       *web.Server
	scheduler *Scheduler
}

// NewBot creates a new instance of the bot with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	wa *whatsapp.Client,
	rt *router.Router,
	web *web.Server,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		db:        db,
		store:     store,
		wa:        wa,
		router:    rt,
		web:       web,
		scheduler: scheduler,
	}
}

// Run starts all components and handles graceful shutdown on context
// cancellation. It returns an error if any component fails during startup
// or execution.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...")

	if err := b.wa.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect whatsapp client: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting message loop...")
		defer b.logger.Info("Message loop stopped.")

		// Messages are routed serially so command acknowledgements are
		// persisted in delivery order.
		for {
			select {
			case <-gCtx.Done():
				return nil
			case msg, ok := <-b.wa.Messages():
				if !ok {
					if gCtx.Err() == nil {
						b.logger.Warn("Message channel closed unexpectedly without context cancellation.")
						return fmt.Errorf("whatsapp message channel closed unexpectedly")
					}
					return nil
				}
				b.router.Route(gCtx, msg)
			}
		}
	})

	g.Go(func() error {
		if err := b.web.Run(gCtx); err != nil {
			b.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	b.logger.Info("Bot orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	b.wa.Disconnect()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
