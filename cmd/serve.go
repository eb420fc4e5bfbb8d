package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	qhttp "heartrisk/http"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	// 1. Load config
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Logger
	logger, err := monitoring.NewLogger(monitoring.LogConfig{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// 3. Artifacts; a failed load keeps the server up in the unavailable state
	inference := ml.LoadInferenceContext(ml.ArtifactPaths{
		Model:  cfg.Artifacts.ModelPath,
		Scaler: cfg.Artifacts.ScalerPath,
	}, logger)

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics()
		metrics.SetArtifactsAvailable(inference.Available())
	}

	// 4. Start HTTP server
	server, err := qhttp.NewServer(qhttp.ServerConfig{
		Port:              cfg.Http.Port,
		Timeout:           cfg.Http.Timeout,
		AllowedOrigins:    cfg.Http.AllowedOrigins,
		RequestsPerMinute: cfg.Http.RateLimit.RequestsPerMinute,
		RateLimitClients:  cfg.Http.RateLimit.Clients,
	}, inference, metrics, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 5. Handle graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("exiting")
	return nil
}
