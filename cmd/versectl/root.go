package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verselearn/internal/config"
	"verselearn/internal/database"
	"verselearn/internal/logging"
	"verselearn/internal/repository"
	"verselearn/internal/service"
)

// app holds the services the commands operate on
type app struct {
	db          *database.DB
	logger      *zap.Logger
	auth        *service.AuthService
	texts       *service.TextService
	leaderboard *service.LeaderboardService
	backup      *service.BackupService
}

func (a *app) Close() {
	_ = a.logger.Sync()
	_ = a.db.Close()
}

// openApp loads configuration from the environment, opens the database and
// brings the schema up to date.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg := config.Load()
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Dev: true})
	if err != nil {
		return nil, err
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	progressRepo := repository.NewProgressRepository(cfg.DataDir, logger)
	catalogRepo := repository.NewCatalogRepository(cfg.DataDir, logger)

	return &app{
		db:          db,
		logger:      logger,
		auth:        service.NewAuthService(userRepo, cfg.SessionDuration, logger),
		texts:       service.NewTextService(progressRepo, catalogRepo, db, logger),
		leaderboard: service.NewLeaderboardService(userRepo, teamRepo, cfg.LeaderboardSize),
		backup:      service.NewBackupService(db, userRepo, teamRepo, progressRepo, catalogRepo, logger),
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "versectl",
		Short:         "Administer a verselearn installation",
		Long:          "versectl manages backups, the public text catalog and learner progress.\nThe database is selected through DATABASE_TYPE, DB_PATH and DATABASE_URL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("data-dir", "", "Directory holding progress files (overrides DATA_DIR)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")

	root.AddCommand(newBackupCmd())
	root.AddCommand(newTextsCmd())
	root.AddCommand(newProgressCmd())
	root.AddCommand(newLeaderboardCmd())
	root.AddCommand(newUsersCmd())
	return root
}
