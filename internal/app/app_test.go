package app

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/config"
)

func TestBuildWithoutOptionalIntegrations(t *testing.T) {
	t.Setenv("DEFAULT_LOCALE", "ja")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load err: %v", err)
	}
	cfg.AI = config.AIConfig{HistoryLimit: 1}
	cfg.Speech = config.SpeechConfig{}

	application, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("Build err: %v", err)
	}
	if application.Recognizer != nil {
		t.Fatalf("expected speech to be disabled without an API key")
	}

	session, err := application.Sessions.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if session.Locale != "ja" {
		t.Fatalf("expected default locale ja, got %s", session.Locale)
	}

	welcome, err := application.Controller.Welcome(context.Background(), session.ID)
	if err != nil || welcome != application.Catalog.Get("ja").Welcome {
		t.Fatalf("unexpected welcome %q %v", welcome, err)
	}
}

func TestBuildRejectsUnknownLocale(t *testing.T) {
	cfg := &config.Config{DefaultLocale: "fr"}
	if _, err := Build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unsupported default locale")
	}
}
