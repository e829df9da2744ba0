package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrBusy            = errors.New("a message is already being sent")
)

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	Session     chat.Session
	Messages    []chat.Message
	LastWeather *weather.Result
	LastSongs   []weather.Song
}

type sessionState struct {
	mu          sync.Mutex
	session     chat.Session
	messages    []chat.Message
	sending     bool
	lastWeather *weather.Result
	lastSongs   []weather.Song
}

// Service encapsulates conversation state management.
type Service struct {
	mu            sync.RWMutex
	sessions      map[string]*sessionState
	defaultLocale i18n.Locale
	now           func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService(defaultLocale i18n.Locale) *Service {
	if defaultLocale == "" {
		defaultLocale = i18n.English
	}
	return &Service{
		sessions:      make(map[string]*sessionState),
		defaultLocale: defaultLocale,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions an anonymous session. An empty locale uses the default.
func (s *Service) CreateSession(_ context.Context, locale i18n.Locale) (chat.Session, error) {
	if locale == "" {
		locale = s.defaultLocale
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		Locale:    string(locale),
		Theme:     chat.ThemeDark,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionState{
		session:  session,
		messages: make([]chat.Message, 0, 16),
	}
	s.mu.Unlock()

	return session, nil
}

func (s *Service) lookup(sessionID string) (*sessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.session, nil
}

// BeginSend marks the session as sending. Overlapping calls get ErrBusy;
// the returned release func clears the flag and is safe to call twice.
func (s *Service) BeginSend(_ context.Context, sessionID string) (func(), error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.sending {
		return nil, ErrBusy
	}
	state.sending = true

	var once sync.Once
	return func() {
		once.Do(func() {
			state.mu.Lock()
			state.sending = false
			state.mu.Unlock()
		})
	}, nil
}

// Sending reports whether a submission is in flight.
func (s *Service) Sending(_ context.Context, sessionID string) (bool, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.sending, nil
}

// SaveMessage appends a message to the session history and returns it with
// its ID and timestamp filled in.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	state, err := s.lookup(message.SessionID)
	if err != nil {
		return chat.Message{}, err
	}

	message.ID = uuid.NewString()
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}

	state.mu.Lock()
	state.messages = append(state.messages, message)
	state.mu.Unlock()
	return message, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	copied := make([]chat.Message, len(state.messages))
	copy(copied, state.messages)
	return copied, nil
}

// SetLocale changes the language used for later replies.
func (s *Service) SetLocale(_ context.Context, sessionID string, locale i18n.Locale) (chat.Session, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.session.Locale = string(locale)
	return state.session, nil
}

// ToggleLocale switches en <-> ja.
func (s *Service) ToggleLocale(_ context.Context, sessionID string) (chat.Session, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.session.Locale = string(i18n.Locale(state.session.Locale).Toggle())
	return state.session, nil
}

// ToggleTheme switches dark <-> light.
func (s *Service) ToggleTheme(_ context.Context, sessionID string) (chat.Session, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.session.Theme = state.session.Theme.Toggle()
	return state.session, nil
}

// RecordForecast overwrites the last known weather and songs.
func (s *Service) RecordForecast(_ context.Context, sessionID string, result weather.Result, songs []weather.Song) error {
	state, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.lastWeather = &result
	state.lastSongs = append([]weather.Song(nil), songs...)
	return nil
}

// Snapshot returns the session, transcript and last-known slots together.
func (s *Service) Snapshot(_ context.Context, sessionID string) (Snapshot, error) {
	state, err := s.lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	snap := Snapshot{
		Session:   state.session,
		Messages:  append([]chat.Message(nil), state.messages...),
		LastSongs: append([]weather.Song(nil), state.lastSongs...),
	}
	if state.lastWeather != nil {
		last := *state.lastWeather
		snap.LastWeather = &last
	}
	return snap, nil
}
