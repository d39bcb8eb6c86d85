package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"verselearn/internal/config"
	"verselearn/internal/database"
	"verselearn/internal/handlers"
	"verselearn/internal/logging"
	"verselearn/internal/repository"
	"verselearn/internal/scheduler"
	"verselearn/internal/security"
	"verselearn/internal/service"
	"verselearn/internal/traversal"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Dev: cfg.LogDev, File: cfg.LogFile})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))

	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := db.SeedBadWords(ctx, cfg.BadWordsURL, logger); err != nil {
		logger.Warn("failed to seed bad words filter", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	progressRepo := repository.NewProgressRepository(cfg.DataDir, logger)
	catalogRepo := repository.NewCatalogRepository(cfg.DataDir, logger)

	// Initialize services
	attempts := service.NewAttemptStore()
	studyService := service.NewStudyService(
		progressRepo,
		traversal.New(nil),
		service.NewLedger(userRepo, logger),
		attempts,
		service.StudyConfig{MaxFragments: cfg.MaxFragments, AdvanceAfter: cfg.AutoAdvanceDelay},
		logger,
	)
	textService := service.NewTextService(progressRepo, catalogRepo, db, logger)
	authService := service.NewAuthService(userRepo, cfg.SessionDuration, logger)
	teamService := service.NewTeamService(teamRepo, userRepo, logger)
	leaderboardService := service.NewLeaderboardService(userRepo, teamRepo, cfg.LeaderboardSize)
	backupService := service.NewBackupService(db, userRepo, teamRepo, progressRepo, catalogRepo, logger)

	signer := security.NewTokenSigner(cfg.SessionSecret)
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	apiLimiter := security.NewRateLimiter(120, time.Minute)
	authLimiter := security.NewRateLimiter(10, time.Minute)

	middleware := handlers.NewMiddleware(authService, signer, csrf, apiLimiter, logger)
	authMiddleware := handlers.NewMiddleware(authService, signer, csrf, authLimiter, logger)

	mux := handlers.NewRouter(middleware, authMiddleware, handlers.Handlers{
		Auth:   handlers.NewAuthHandler(authService, teamService, signer, csrf, logger),
		Text:   handlers.NewTextHandler(textService, cfg.DefaultLanguage, logger),
		Study:  handlers.NewStudyHandler(studyService, textService, cfg.DefaultLanguage, logger),
		Team:   handlers.NewTeamHandler(teamService, leaderboardService, logger),
		Admin:  handlers.NewAdminHandler(authService, textService, teamService, backupService, logger),
		Health: handlers.NewHealthHandler(db, logger),
	})

	// Background housekeeping
	jobs := scheduler.New(authService, attempts, logger, apiLimiter, authLimiter)
	if err := jobs.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer jobs.Stop()

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(logger, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
