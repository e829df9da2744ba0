package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/app"
	"github.com/zhouzirui/weatherchat/backend/internal/config"
	"github.com/zhouzirui/weatherchat/backend/internal/logger"
	"github.com/zhouzirui/weatherchat/backend/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The screen owns stdout; logs only go to LOG_FILE when one is set.
	cfg.Log.Console = false
	var zl *zap.Logger
	if cfg.Log.File != "" {
		zl, err = logger.New(cfg.Log)
	} else {
		zl, err = logger.NewWithWriter(cfg.Log, io.Discard)
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zl)

	application, err := app.Build(ctx, cfg, zl)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}

	session, err := application.Sessions.CreateSession(ctx, "")
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}

	model, err := tui.New(ctx, application.Controller, application.Catalog, session.ID)
	if err != nil {
		log.Fatalf("failed to build chat screen: %v", err)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Fatalf("chat client error: %v", err)
	}
}
