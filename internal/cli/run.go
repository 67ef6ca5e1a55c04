package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/forPelevin/capburn/internal/config"
	"github.com/forPelevin/capburn/internal/logging"
	"github.com/forPelevin/capburn/internal/pipeline"
	"github.com/forPelevin/capburn/internal/storage"
)

// runtime is the state shared by commands that touch working storage.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store
	svc    *pipeline.Service
}

func loadRuntime(configPath string, logOut io.Writer) (*runtime, error) {
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if exists {
		logger.Debug("configuration loaded", slog.String("path", resolved))
	} else {
		logger.Debug("no configuration file found, using defaults")
	}

	store, err := storage.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    pipeline.New(cfg, store, logger),
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
