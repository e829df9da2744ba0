package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	chatservice "github.com/zhouzirui/weatherchat/backend/internal/service/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/forecast"
	"github.com/zhouzirui/weatherchat/backend/internal/service/smalltalk"
	"github.com/zhouzirui/weatherchat/backend/internal/upstream"
)

func newModel(t *testing.T) (Model, *i18n.Catalog) {
	t.Helper()
	ctx := context.Background()
	catalog := i18n.MustLoad()
	sessions := chatservice.NewService(i18n.English)
	controller := assistant.New(
		sessions,
		forecast.NewService(upstream.NewClient("http://127.0.0.1:1", time.Second), catalog, 5, nil),
		smalltalk.NewResponder(catalog, smalltalk.WithPicker(func(int) int { return 0 })),
		catalog,
		nil,
	)
	session, _ := sessions.CreateSession(ctx, "")

	m, err := New(ctx, controller, catalog, session.ID)
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	return m, catalog
}

func typeText(m Model, text string) Model {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func TestSubmitRoundTrip(t *testing.T) {
	m, catalog := newModel(t)
	m = typeText(m, "hello")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if !m.sending || cmd == nil {
		t.Fatalf("expected a pending send")
	}
	if len(m.input) != 0 {
		t.Fatalf("expected input to be cleared")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.(Model).pending != "hello" {
		t.Fatalf("second enter must not replace the pending message")
	}

	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.sending {
		t.Fatalf("expected sending to clear after reply")
	}
	if len(m.messages) != 2 || m.messages[1].Content != catalog.Get(i18n.English).SmallTalk[0].Replies[0] {
		t.Fatalf("unexpected transcript %+v", m.messages)
	}
	if !strings.Contains(m.View(), "Hello!") {
		t.Fatalf("expected greeting in view")
	}
}

func TestToggleLocaleAndTheme(t *testing.T) {
	m, catalog := newModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = updated.(Model)
	if m.session.Locale != "ja" {
		t.Fatalf("expected ja, got %s", m.session.Locale)
	}
	if !strings.Contains(m.View(), catalog.Get(i18n.Japanese).InputPlaceholder) {
		t.Fatalf("expected japanese placeholder in view")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if updated.(Model).session.Theme != chat.ThemeLight {
		t.Fatalf("expected light theme")
	}
}

func TestQuitStopsTicking(t *testing.T) {
	m, _ := newModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if !m.quitting || cmd == nil {
		t.Fatalf("expected quit command")
	}

	if _, next := m.Update(frameTickMsg{}); next != nil {
		t.Fatalf("tick loop must stop after quitting")
	}
}

func TestBackspaceAndResize(t *testing.T) {
	m, _ := newModel(t)
	m = typeText(m, "abc")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(Model)
	if string(m.input) != "ab" {
		t.Fatalf("unexpected input %q", string(m.input))
	}

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)
	if w, h := m.field.Size(); w != 100 || h != 10 {
		t.Fatalf("unexpected starfield size %dx%d", w, h)
	}
}
