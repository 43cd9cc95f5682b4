package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/internal/ratelimiter"
	"github.com/kol-dayn/depot/pkg/config"
	"github.com/kol-dayn/depot/pkg/engine"
	"github.com/kol-dayn/depot/pkg/repository"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override the configured log level (DEBUG, INFO, WARN, ERROR)")

	// Bootstrap: seed the first administrator, then exit.
	createAdmin := flag.Bool("create-admin", false, "Create an administrator account and exit")
	adminID := flag.Int64("admin-id", 0, "Actor id for -create-admin")
	adminPassword := flag.String("admin-password", "", "Password for -create-admin")
	adminName := flag.String("admin-name", "admin", "Display name for -create-admin")

	actorID := flag.Int64("actor", 0, "Actor id for the interactive console")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("depot - conversational file repository")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Catalog store: %s", cfg.Catalog.Type)
	logger.Info("Repository root: %s", cfg.Repository.Root)

	store, err := config.CreateCatalogStore(&cfg.Catalog)
	if err != nil {
		logger.Fatal("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	// An unreachable store is fatal at startup, not mid-session.
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("Catalog store is not reachable: %v", err)
	}

	repo, err := repository.NewService(store, repository.Options{
		Root:           cfg.Repository.Root,
		MaxUploadBytes: cfg.Repository.MaxUploadBytes,
	})
	if err != nil {
		logger.Fatal("Failed to initialize repository: %v", err)
	}

	if *createAdmin {
		if *adminID == 0 || *adminPassword == "" {
			logger.Fatal("-create-admin requires -admin-id and -admin-password")
		}
		admin, err := repo.AddAdmin(ctx, *adminID, *adminPassword, *adminName)
		if err != nil {
			logger.Fatal("Failed to create administrator: %v", err)
		}
		logger.Info("Administrator %d (%s) created", admin.ID, admin.Username)
		return
	}

	// Reconverge the catalog with whatever changed on disk while we
	// were down.
	if err := repo.ReconcileAll(ctx); err != nil {
		logger.Fatal("Startup reconciliation failed: %v", err)
	}
	logger.Info("Startup reconciliation complete")

	if *actorID == 0 {
		logger.Fatal("-actor is required for the interactive console")
	}

	var limiter *ratelimiter.PerActor
	if cfg.Engine.EventsPerSecond > 0 {
		limiter = ratelimiter.NewPerActor(cfg.Engine.EventsPerSecond, cfg.Engine.Burst)
	}

	eng := engine.NewEngine(repo, engine.Options{
		Notifier: consoleNotifier{},
		Limiter:  limiter,
		PageSize: cfg.Engine.PageSize,
	})

	console := newConsole(eng, *actorID)
	consoleDone := make(chan error, 1)
	go func() {
		consoleDone <- console.run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Console ready for actor %d. Press Ctrl+C to stop.", *actorID)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
		cancel()
		<-consoleDone
	case err := <-consoleDone:
		if err != nil {
			logger.Error("Console error: %v", err)
			os.Exit(1)
		}
	}
	logger.Info("Stopped")
}
