package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbonduro/movequote/internal/config"
	"github.com/vbonduro/movequote/internal/db"
	"github.com/vbonduro/movequote/internal/detection"
	"github.com/vbonduro/movequote/internal/domain"
	"github.com/vbonduro/movequote/internal/imageprep"
	"github.com/vbonduro/movequote/internal/inventory"
	"github.com/vbonduro/movequote/internal/logging"
	"github.com/vbonduro/movequote/internal/photostore/local"
	"github.com/vbonduro/movequote/internal/rates"
	"github.com/vbonduro/movequote/internal/service"
	"github.com/vbonduro/movequote/internal/store"
	"github.com/vbonduro/movequote/internal/vision"
	claudevision "github.com/vbonduro/movequote/internal/vision/claude"
	ollamavision "github.com/vbonduro/movequote/internal/vision/ollama"
	"github.com/vbonduro/movequote/internal/web"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	defaults, err := defaultRates(cfg.RatesFile)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		return fmt.Errorf("failed to initialize photo store: %w", err)
	}

	detector := imageprep.NewDetector(newDetector(cfg, logger), cfg.DetectMaxDimension, logger)
	inv := inventory.NewJob(nil)
	coord := detection.New(inv, detector, photoStg, detection.Options{
		Concurrency: cfg.DetectConcurrency,
		Timeout:     cfg.DetectTimeout,
		Logger:      logger,
	})
	defer coord.Close()

	svc := service.NewQuoteService(inv, coord, store.NewRateStore(database), store.NewQuoteStore(database), photoStg, defaults, logger)
	server := web.NewServer(svc, logger, cfg.MaxUploadMB)
	httpServer := server.HTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// defaultRates layers the optional rates file over the built-in schedule.
func defaultRates(path string) (domain.RateSchedule, error) {
	defaults := rates.Defaults()
	if path == "" {
		return defaults, nil
	}
	overrides, err := rates.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return defaults.Merge(overrides), nil
}

func newDetector(cfg *config.Config, logger *slog.Logger) vision.Detector {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when VISION_BACKEND=claude, detection disabled")
			return vision.Unavailable{}
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeDetector(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "none":
		logger.Info("object detection disabled")
		return vision.Unavailable{}
	default:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaDetector(cfg.OllamaHost, cfg.OllamaModel)
	}
}
