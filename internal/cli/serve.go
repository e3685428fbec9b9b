package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cutroom/cutroom-agent/internal/api"
	"github.com/cutroom/cutroom-agent/internal/assets"
	"github.com/cutroom/cutroom-agent/internal/cloud"
	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/timeline"
	"github.com/cutroom/cutroom-agent/internal/ui"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port     int
	Headless bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent",
		Long: `Run the Cutroom Agent: open the database, restore the last project and
serve the editing API on the loopback interface until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "run without the system tray")

	return cmd
}

func runServe(opts *ServeOptions) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	port := cfg.Port()
	if opts.Port != 0 {
		port = opts.Port
	}
	headless := cfg.Headless() || opts.Headless

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir(), 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	logLevel := cfg.LogLevel()
	if opts.Verbose {
		logLevel = "debug"
	}
	logger := logging.NewLogger(logLevel)
	logger.Info("starting cutroom agent", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logging.WithComponent(logger, "db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║  %-57s║\n", "CUTROOM AGENT v"+config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", port)
	fmt.Printf("║  Auth Token: %-44s ║\n", logging.SanitizeToken(authToken))
	fmt.Printf("║  Device ID:  %-44s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Printf("  Pair the studio UI with token: %s\n", authToken)
	fmt.Println()

	cloudLog := logging.WithComponent(logger, "cloud")
	var cloudClient cloud.Client
	if cfg.CloudEnabled() {
		cloudClient = cloud.NewHTTPClient(cfg.CloudBaseURL(), cfg.CloudToken(), cfg.CloudOrgSlug(), cloudLog)
		logger.Info("cloud sync enabled", "base_url", cfg.CloudBaseURL(), "org_slug", cfg.CloudOrgSlug())
	} else {
		cloudClient = cloud.NewStubClient(cloudLog)
	}
	if err := cloudClient.RegisterDevice(deviceID); err != nil {
		logger.Warn("device registration failed", "error", err)
	}

	assetLog := logging.WithComponent(logger, "assets")
	cache := assets.NewCache(assetLog)
	cache.SetIndex(assets.NewSQLiteIndex(database.Conn()))
	if warmed, err := cache.Warm(context.Background()); err != nil {
		logger.Warn("asset index warm failed", "error", err)
	} else if warmed > 0 {
		logger.Info("asset cache warmed from index", "entries", warmed)
	}
	fetcher := assets.NewRefFetcher(cfg.MediaDir(), cfg.CacheDir(), assetLog)
	doctor := assets.NewDoctor(assetLog)

	var prober assets.Prober
	if caps := doctor.Refresh(); caps.CanProbe() {
		prober = assets.NewExecProber(caps.FFprobe.Path, assetLog)
	} else {
		prober = assets.NewStubProber(assetLog)
		logger.Warn("ffprobe not found, dropped media falls back to default durations")
	}
	prefetcher := assets.NewPrefetcher(cache, fetcher, prober, assetLog)

	watcher := assets.NewStubWatcher(assetLog)
	watcher.OnChange(func(p string, _ assets.EventType) {
		// Refs are stored either absolute or relative to the media dir.
		cache.Evict(p)
		if rel, err := filepath.Rel(cfg.MediaDir(), p); err == nil {
			cache.Evict(rel)
		}
	})

	hub := api.NewEventHub(logging.WithComponent(logger, "events"))
	session := playback.NewSession(timeline.NewStore(), cache, hub, logging.WithComponent(logger, "playback"))
	session.SetDurationProbe(cache)

	projectLog := logging.WithComponent(logger, "project")
	projects := project.NewService(repo, session, projectLog)
	projects.SetPrefetcher(prefetcher)

	autosaver := project.NewAutosaver(projects, projectLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go session.Run(ctx)
	go prefetcher.Run(ctx)
	go autosaver.Run(ctx)

	if err := watcher.Watch(ctx, cfg.MediaDir()); err != nil {
		logger.Warn("media watcher unavailable", "error", err)
	}

	if err := projects.OpenLast(ctx); err != nil {
		logger.Warn("could not restore last project", "error", err)
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:       port,
		Session:    session,
		Projects:   projects,
		Repository: repo,
		Content:    assets.NewContentServer(cache, assetLog),
		Cache:      cache,
		Prefetcher: prefetcher,
		Doctor:     doctor,
		Events:     hub,
		Logger:     logging.WithComponent(logger, "api"),
		StartTime:  startTime,
		DeviceID:   deviceID,
		Version:    config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if headless {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session:    session,
			Projects:   projects,
			Prefetcher: prefetcher,
			Logger:     logging.WithComponent(logger, "ui"),
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := projects.Flush(shutdownCtx); err != nil {
		logger.Error("failed to save open project", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	_ = watcher.Stop()
	hub.Close()

	logger.Info("shutdown complete")
	return nil
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
