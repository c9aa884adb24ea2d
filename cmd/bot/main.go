// Package main contains the entrypoint for the WhatsApp assistant application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kvasudev/sahayak/internal/bot"
	"github.com/kvasudev/sahayak/internal/bot/tasks"
	"github.com/kvasudev/sahayak/internal/config"
	"github.com/kvasudev/sahayak/internal/database"
	"github.com/kvasudev/sahayak/internal/gemini"
	"github.com/kvasudev/sahayak/internal/logger"
	"github.com/kvasudev/sahayak/internal/router"
	"github.com/kvasudev/sahayak/internal/state"
	"github.com/kvasudev/sahayak/internal/web"
	"github.com/kvasudev/sahayak/internal/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// state, ai client, transport, web, scheduler), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	stateMgr := state.NewManager(store, log, cfg.AppID)
	stateMgr.Load(ctx)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, cfg.Messages, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	wa := whatsapp.New(cfg.WhatsApp, log, func(payload string) {
		stateMgr.SetQRPayload(context.Background(), payload)
	}, cfg.Messages.Connected)

	rt := router.New(log, stateMgr, gemClient, wa, cfg.Messages, wa.OwnID)

	webSrv := web.New(cfg.HTTP.ListenAddr, log, stateMgr, wa)

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))

	app := bot.NewBot(log, cfg, db, store, wa, rt, webSrv, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
