// Package tui is the terminal chat client. It drives the assistant
// controller in-process and draws the starfield behind the header.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	"github.com/zhouzirui/weatherchat/backend/internal/tui/starfield"
)

const frameInterval = 80 * time.Millisecond

type frameTickMsg struct{}

type replyMsg struct {
	message chat.Message
	err     error
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameTickMsg{}
	})
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx        context.Context
	controller *assistant.Controller
	catalog    *i18n.Catalog
	sessionID  string

	session  chat.Session
	messages []chat.Message
	input    []rune
	pending  string
	sending  bool
	status   string

	field    *starfield.Field
	width    int
	height   int
	quitting bool
}

// New creates the chat screen for an existing session.
func New(ctx context.Context, controller *assistant.Controller, catalog *i18n.Catalog, sessionID string) (Model, error) {
	session, err := controller.Sessions().GetSession(ctx, sessionID)
	if err != nil {
		return Model{}, err
	}
	m := Model{
		ctx:        ctx,
		controller: controller,
		catalog:    catalog,
		sessionID:  sessionID,
		session:    session,
		width:      80,
		height:     24,
	}
	m.field = starfield.New(m.width, m.backgroundHeight(), uint64(time.Now().UnixNano()))
	return m, nil
}

func (m Model) dict() *i18n.Dictionary {
	return m.catalog.Get(i18n.Locale(m.session.Locale))
}

func (m Model) backgroundHeight() int {
	return max(3, m.height/4)
}

func (m Model) Init() tea.Cmd {
	return frameTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.field.Resize(m.width, m.backgroundHeight())
		return m, nil

	case frameTickMsg:
		if m.quitting {
			return m, nil
		}
		m.field.Step()
		return m, frameTick()

	case replyMsg:
		m.sending = false
		m.pending = ""
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		m.reloadTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "ctrl+l":
		if session, err := m.controller.ToggleLocale(m.ctx, m.sessionID); err == nil {
			m.session = session
		}
		return m, nil
	case "ctrl+t":
		if session, err := m.controller.ToggleTheme(m.ctx, m.sessionID); err == nil {
			m.session = session
		}
		return m, nil
	case "enter":
		return m.submit()
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(string(m.input))
	if text == "" || m.sending {
		return m, nil
	}

	m.input = nil
	m.pending = text
	m.sending = true
	m.status = ""

	ctx, controller, sessionID := m.ctx, m.controller, m.sessionID
	return m, func() tea.Msg {
		bot, err := controller.Handle(ctx, sessionID, text)
		if errors.Is(err, assistant.ErrBusy) {
			err = errors.New("still waiting for the previous reply")
		}
		return replyMsg{message: bot, err: err}
	}
}

func (m *Model) reloadTranscript() {
	if messages, err := m.controller.Sessions().LoadTranscript(m.ctx, m.sessionID); err == nil {
		m.messages = messages
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	styles := stylesFor(m.session.Theme)
	dict := m.dict()
	contentWidth := max(20, m.width-4)

	header := styles.title.Render("Weather & Music Chat") + "  " +
		styles.muted.Render(strings.ToUpper(m.session.Locale)+" · "+string(m.session.Theme))

	lines := []string{styles.bot.Width(contentWidth).Render(dict.Welcome)}
	for _, message := range m.messages {
		lines = append(lines, renderMessage(styles, message, contentWidth))
	}
	if m.pending != "" {
		lines = append(lines, renderMessage(styles, chat.Message{Type: chat.SenderUser, Content: m.pending}, contentWidth))
	}
	if m.sending {
		lines = append(lines, styles.muted.Render(dict.Sending))
	}

	transcriptHeight := max(3, m.height-m.backgroundHeight()-5)
	transcript := tail(strings.Join(lines, "\n\n"), transcriptHeight)

	var input string
	if len(m.input) == 0 {
		input = styles.muted.Render(dict.InputPlaceholder)
	} else {
		input = string(m.input) + "▏"
	}

	footer := styles.muted.Render("enter send · ctrl+l language · ctrl+t theme · esc quit")
	if m.status != "" {
		footer = styles.alert.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.field.Render(starfield.PaletteFor(m.session.Theme)),
		header,
		transcript,
		styles.input.Width(contentWidth).Render(input),
		footer,
	)
}

func renderMessage(styles themeStyles, message chat.Message, width int) string {
	if message.Type == chat.SenderUser {
		return styles.user.Width(width).Align(lipgloss.Right).Render(message.Content)
	}
	return styles.bot.Width(width).Render(message.Content)
}

// tail keeps the last n lines.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

type themeStyles struct {
	title lipgloss.Style
	muted lipgloss.Style
	user  lipgloss.Style
	bot   lipgloss.Style
	input lipgloss.Style
	alert lipgloss.Style
}

func stylesFor(theme chat.Theme) themeStyles {
	if theme == chat.ThemeLight {
		return themeStyles{
			title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("25")),
			muted: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			user:  lipgloss.NewStyle().Foreground(lipgloss.Color("24")),
			bot:   lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
			input: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("249")),
			alert: lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		}
	}
	return themeStyles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		user:  lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		bot:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		input: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")),
		alert: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}
