package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"

	"github.com/glabrego/skyline-cli/internal/bsky"
	"github.com/glabrego/skyline-cli/internal/config"
	"github.com/glabrego/skyline-cli/internal/gateway"
	"github.com/glabrego/skyline-cli/internal/imgcache"
	"github.com/glabrego/skyline-cli/internal/storage"
	"github.com/glabrego/skyline-cli/internal/tui"
)

const cachedPostLimit = 50

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "skyline: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := charmlog.NewWithOptions(logFile, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.InfoLevel,
	})

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		return fmt.Errorf("storage write check failed (%w), verify SKYLINE_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := bsky.NewClient(cfg.ServiceURL, nil)
	service := gateway.New(client, logger)
	service.SetSessionSaver(func(session bsky.Session) error {
		return config.SaveSession(cfg.SessionPath, session)
	})

	if saved := config.LoadSession(cfg.SessionPath); saved.RefreshJWT != "" {
		if err := service.Resume(ctx, saved); err != nil {
			logger.Warn("session resume failed, starting logged out", "error", err)
		}
	}

	cached, err := repo.ListPosts(ctx, cachedPostLimit)
	if err != nil {
		logger.Warn("cached timeline unavailable", "error", err)
		cached = nil
	}

	pipeline := imgcache.New(logger)
	model := tui.NewModel(service, pipeline, repo, logger, cached)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}

	if service.State() == gateway.StateLoggedOut {
		if err := config.ClearSession(cfg.SessionPath); err != nil {
			logger.Warn("session cleanup failed", "error", err)
		}
	}
	return nil
}
