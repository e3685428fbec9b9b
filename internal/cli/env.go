package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cutroom/cutroom-agent/internal/cloud"
	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/project"
)

// cmdEnv is the shared setup for commands that run without a live agent:
// config, a quiet logger and the open database.
type cmdEnv struct {
	cfg    *config.EnvConfig
	logger *slog.Logger
	db     *db.DB
	repo   *project.SQLiteRepository
}

func newCmdEnv(verbose bool) (*cmdEnv, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	logger := logging.NewLogger(logLevel)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &cmdEnv{
		cfg:    cfg,
		logger: logger,
		db:     database,
		repo:   project.NewRepository(database.Conn()),
	}, nil
}

func (e *cmdEnv) Close() {
	_ = e.db.Close()
}

// cloudClient builds the HTTP sync client, or explains how to configure
// it. The registered device ID rides along when the database has one.
func (e *cmdEnv) cloudClient() (cloud.Client, error) {
	if !e.cfg.CloudEnabled() {
		return nil, fmt.Errorf("cloud sync is not configured; set %s and %s",
			config.EnvCloudURL, config.EnvCloudToken)
	}

	client := cloud.NewHTTPClient(e.cfg.CloudBaseURL(), e.cfg.CloudToken(), e.cfg.CloudOrgSlug(), e.logger)
	if deviceID, err := e.repo.GetConfig(context.Background(), "device_id"); err == nil && deviceID != "" {
		if err := client.RegisterDevice(deviceID); err != nil {
			e.logger.Warn("device registration failed", "error", err)
		}
	}
	return client, nil
}
