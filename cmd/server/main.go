package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/bootstrap"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/cache"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/db"
	mq "github.com/Saeraphinx/BadBeatMods-sub000/internal/infra/queue"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/handler"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/router"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "badbeatmods",
	Short: "BadBeatMods registry server",
	Long: `BadBeatMods serves the mod registry API.

Configuration is read from config.yaml and BBM_* environment variables.
Running without a subcommand starts the API server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the database and apply the seed file",
	RunE:  runMigrate,
}

var resortCmd = &cobra.Command{
	Use:   "resort <game>",
	Short: "Re-sort the supported game versions of every mod version of a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runResort,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, resortCmd)
}

func setup() (*config.Config, *do.Injector, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	// plugins attach to the global providers, so telemetry comes first
	if err := bootstrap.InitTelemetry(cfg); err != nil {
		return nil, nil, nil, err
	}
	inj := bootstrap.BuildContainer(cfg)
	log, err := do.Invoke[*zap.Logger](inj)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, inj, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, inj, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Seed(ctx, inj); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	reg := do.MustInvoke[*cache.Registry](inj)
	if cfg.Redis.Enabled {
		b, err := do.Invoke[*cache.Broadcaster](inj)
		if err != nil {
			return fmt.Errorf("cache broadcaster: %w", err)
		}
		if err := b.Start(ctx); err != nil {
			return fmt.Errorf("cache broadcaster: %w", err)
		}
	}
	// warm the snapshot before taking traffic
	if err := reg.RefreshAll(ctx); err != nil {
		log.Warn("initial cache load failed", zap.Error(err))
	}
	go reg.Run(ctx, cfg.Cache.RefreshInterval)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewRouter(router.RouterDeps{
		Config:             cfg,
		Log:                log,
		Auth:               do.MustInvoke[service.UserService](inj),
		GameHandler:        do.MustInvoke[*handler.GameHandler](inj),
		GameVersionHandler: do.MustInvoke[*handler.GameVersionHandler](inj),
		ProjectHandler:     do.MustInvoke[*handler.ProjectHandler](inj),
		VersionHandler:     do.MustInvoke[*handler.VersionHandler](inj),
		ApprovalHandler:    do.MustInvoke[*handler.ApprovalHandler](inj),
		ModsHandler:        do.MustInvoke[*handler.ModsHandler](inj),
		UserHandler:        do.MustInvoke[*handler.UserHandler](inj),
	})

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Sugar().Infow("listening", "addr", cfg.App.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	closeInfra(shutdownCtx, cfg, inj, log)
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, inj, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gdb := do.MustInvoke[*gorm.DB](inj)
	if !cfg.Database.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}
	if err := bootstrap.Seed(cmd.Context(), inj); err != nil {
		return err
	}
	log.Info("migration complete")
	closeInfra(cmd.Context(), cfg, inj, log)
	return nil
}

func runResort(cmd *cobra.Command, args []string) error {
	cfg, inj, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	report, err := do.MustInvoke[service.GameVersionService](inj).ResortSync(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d versions, %d updated, %d failed\n",
		args[0], report.Total, report.Updated, report.Failed)
	closeInfra(cmd.Context(), cfg, inj, log)
	return nil
}

// closeInfra releases the clients that config enabled.
func closeInfra(ctx context.Context, cfg *config.Config, inj *do.Injector, log *zap.Logger) {
	if cfg.RabbitMQ.Enabled {
		if pub, err := do.Invoke[*mq.Publisher](inj); err == nil {
			if err := pub.Close(); err != nil {
				log.Warn("close rabbitmq publisher", zap.Error(err))
			}
		}
	}
	if cfg.Redis.Enabled {
		if rdb, err := do.Invoke[*redis.Client](inj); err == nil {
			if err := rdb.Close(); err != nil {
				log.Warn("close redis", zap.Error(err))
			}
		}
	}
	if gdb, err := do.Invoke[*gorm.DB](inj); err == nil {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := telemetry.Shutdown(ctx); err != nil {
		log.Warn("telemetry shutdown", zap.Error(err))
	}
	if err := telemetry.ShutdownMetrics(ctx); err != nil {
		log.Warn("metrics shutdown", zap.Error(err))
	}
}
