// Package assistant sequences one chat turn: it records the user message,
// routes it to chit-chat or the weather path and appends exactly one bot reply.
package assistant

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/analysis/intent"
	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/weatherchat/backend/internal/service/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/forecast"
)

var (
	ErrEmptyMessage = errors.New("message content is required")
	ErrBusy         = chatservice.ErrBusy
)

// Forecaster answers weather queries.
type Forecaster interface {
	Reply(ctx context.Context, locale i18n.Locale, city string) (forecast.Outcome, error)
}

// SmallTalker answers everything that is not a weather query.
type SmallTalker interface {
	Reply(ctx context.Context, locale i18n.Locale, history []chat.Message, text string) string
}

// Controller is the submit handler shared by the HTTP API, the websocket
// and the terminal client.
type Controller struct {
	sessions  *chatservice.Service
	forecast  Forecaster
	smalltalk SmallTalker
	catalog   *i18n.Catalog
	log       *zap.Logger
}

// New creates a Controller.
func New(sessions *chatservice.Service, fc Forecaster, st SmallTalker, catalog *i18n.Catalog, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		sessions:  sessions,
		forecast:  fc,
		smalltalk: st,
		catalog:   catalog,
		log:       log.Named("assistant"),
	}
}

// Sessions exposes the underlying store for read-only routes.
func (c *Controller) Sessions() *chatservice.Service {
	return c.sessions
}

// Handle processes one user submission and returns the bot message that was
// appended. Weather failures become localized bot messages, not errors.
func (c *Controller) Handle(ctx context.Context, sessionID, text string) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	release, err := c.sessions.BeginSend(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	defer release()

	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}
	locale := i18n.Locale(session.Locale)

	history, err := c.sessions.LoadTranscript(ctx, sessionID)
	if err != nil {
		return chat.Message{}, err
	}

	if _, err := c.sessions.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Type:      chat.SenderUser,
		Content:   text,
	}); err != nil {
		return chat.Message{}, err
	}

	var reply string
	switch intent.Classify(text) {
	case intent.Weather:
		reply = c.weatherReply(ctx, sessionID, locale, text)
	default:
		reply = c.smalltalk.Reply(ctx, locale, history, text)
	}

	return c.sessions.SaveMessage(ctx, chat.Message{
		SessionID: sessionID,
		Type:      chat.SenderBot,
		Content:   reply,
	})
}

func (c *Controller) weatherReply(ctx context.Context, sessionID string, locale i18n.Locale, text string) string {
	dict := c.catalog.Get(locale)
	city := intent.ExtractCity(text, dict.DefaultCity)

	outcome, err := c.forecast.Reply(ctx, locale, city)
	if err != nil {
		c.log.Warn("weather reply failed",
			zap.String("sessionID", sessionID),
			zap.String("city", city),
			zap.Error(err),
		)
		if isNotFound(err) {
			return dict.CityNotFoundFor(city)
		}
		return dict.GenericError
	}

	if err := c.sessions.RecordForecast(ctx, sessionID, outcome.Weather, outcome.Songs); err != nil {
		c.log.Warn("record forecast failed", zap.String("sessionID", sessionID), zap.Error(err))
	}
	return outcome.Reply
}

func isNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// Welcome returns the greeting line in the session's current language.
func (c *Controller) Welcome(ctx context.Context, sessionID string) (string, error) {
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return c.catalog.Get(i18n.Locale(session.Locale)).Welcome, nil
}

// ToggleLocale switches the session language. Existing messages are kept as-is.
func (c *Controller) ToggleLocale(ctx context.Context, sessionID string) (chat.Session, error) {
	return c.sessions.ToggleLocale(ctx, sessionID)
}

// SetLocale selects a session language explicitly.
func (c *Controller) SetLocale(ctx context.Context, sessionID string, locale i18n.Locale) (chat.Session, error) {
	return c.sessions.SetLocale(ctx, sessionID, locale)
}

// ToggleTheme switches between light and dark.
func (c *Controller) ToggleTheme(ctx context.Context, sessionID string) (chat.Session, error) {
	return c.sessions.ToggleTheme(ctx, sessionID)
}
