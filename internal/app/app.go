// Package app wires configuration into the services shared by the server
// and the terminal client.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/config"
	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/service/ai"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	"github.com/zhouzirui/weatherchat/backend/internal/service/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/forecast"
	"github.com/zhouzirui/weatherchat/backend/internal/service/smalltalk"
	"github.com/zhouzirui/weatherchat/backend/internal/speech"
	"github.com/zhouzirui/weatherchat/backend/internal/upstream"
)

// App holds the wired services.
type App struct {
	Catalog    *i18n.Catalog
	Sessions   *chat.Service
	Controller *assistant.Controller
	// Recognizer is nil when speech input is not configured.
	Recognizer speech.Recognizer
}

// Build creates every service from cfg. Optional integrations (the Ark
// companion, Whisper) are skipped with a warning when not configured.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("loading locale dictionaries: %w", err)
	}

	defaultLocale, err := i18n.ParseLocale(cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	forecastSvc := forecast.NewService(client, catalog, cfg.Upstream.MaxSongs, log)

	opts := []smalltalk.Option{smalltalk.WithLogger(log)}
	if cfg.AI.Enabled() {
		companion, err := ai.NewService(ctx, cfg.AI, catalog, log)
		if err != nil {
			log.Warn("failed to initialize AI companion, continuing with canned replies", zap.Error(err))
		} else {
			opts = append(opts, smalltalk.WithCompanion(companion))
			log.Info("AI companion initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		log.Info("Ark credentials not configured, skipping AI companion")
	}
	responder := smalltalk.NewResponder(catalog, opts...)

	sessions := chat.NewService(defaultLocale)
	application := &App{
		Catalog:    catalog,
		Sessions:   sessions,
		Controller: assistant.New(sessions, forecastSvc, responder, catalog, log),
	}

	if whisper := speech.NewWhisperRecognizer(cfg.Speech); whisper != nil {
		application.Recognizer = whisper
		log.Info("speech recognition enabled", zap.String("model", cfg.Speech.Model))
	} else {
		log.Info("speech API key not configured, speech input disabled")
	}

	log.Info("upstream configured",
		zap.String("baseURL", cfg.Upstream.BaseURL),
		zap.Duration("timeout", cfg.Upstream.Timeout),
		zap.Int("maxSongs", cfg.Upstream.MaxSongs),
	)
	return application, nil
}
