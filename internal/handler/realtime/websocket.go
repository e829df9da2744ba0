package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	chatservice "github.com/zhouzirui/weatherchat/backend/internal/service/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/speech"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

// WebSocketHandler 实时聊天处理器，支持文本与语音输入
type WebSocketHandler struct {
	controller *assistant.Controller
	catalog    *i18n.Catalog
	recognizer speech.Recognizer
	maxAudio   int
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器。recognizer 可以为 nil。
func NewWebSocketHandler(controller *assistant.Controller, catalog *i18n.Catalog, recognizer speech.Recognizer, maxAudioBytes int, log *zap.Logger) *WebSocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebSocketHandler{
		controller: controller,
		catalog:    catalog,
		recognizer: recognizer,
		maxAudio:   maxAudioBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log.Named("websocket"),
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// AudioMessage 音频消息。AudioData 在 JSON 中为 base64。
type AudioMessage struct {
	AudioData []byte `json:"audioData"`
	Format    string `json:"format"`
	IsFinal   bool   `json:"isFinal"`
}

// LocaleMessage 语言切换消息，为空时切换
type LocaleMessage struct {
	Locale string `json:"locale"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ResultData is the payload of every "result" frame.
type ResultData struct {
	Event   string        `json:"event"`
	Message *chat.Message `json:"message,omitempty"`
	Session *chat.Session `json:"session,omitempty"`
	Welcome string        `json:"welcome,omitempty"`
	Text    string        `json:"text,omitempty"`
	State   string        `json:"state,omitempty"`
}

type connection struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	sessionID string
	adapter   *speech.Adapter
}

func (c *connection) write(msg outgoingMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.controller.Sessions().GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &connection{
		conn:      conn,
		sessionID: sessionID,
		adapter:   speech.NewAdapter(h.recognizer, h.maxAudio),
	}
	h.log.Info("connection opened", zap.String("sessionID", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	welcome, _ := h.controller.Welcome(ctx, sessionID)
	h.sendResult(c, ResultData{
		Event:   "connected",
		Session: &session,
		Welcome: welcome,
		State:   c.adapter.State().String(),
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("read error", zap.String("sessionID", sessionID), zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(c, "session mismatch")
			continue
		}

		h.handleMessage(ctx, c, &msg)
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *connection, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(c, "invalid text payload")
			return
		}
		h.submit(ctx, c, text.Text)
	case "listen":
		h.handleListen(ctx, c)
	case "audio":
		h.handleAudio(ctx, c, msg.Data)
	case "stop":
		if c.adapter.State() == speech.Listening {
			_, _ = c.adapter.Toggle()
		}
		h.sendResult(c, ResultData{Event: "listening", State: c.adapter.State().String()})
	case "locale":
		h.handleLocale(ctx, c, msg.Data)
	case "theme":
		session, err := h.controller.ToggleTheme(ctx, c.sessionID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendResult(c, ResultData{Event: "session", Session: &session})
	default:
		h.sendError(c, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) submit(ctx context.Context, c *connection, text string) {
	bot, err := h.controller.Handle(ctx, c.sessionID, text)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, chatservice.ErrBusy):
			h.sendError(c, err.Error())
		default:
			h.log.Error("handle message failed", zap.String("sessionID", c.sessionID), zap.Error(err))
			h.sendError(c, "internal error")
		}
		return
	}
	h.sendResult(c, ResultData{Event: "message", Message: &bot})
}

func (h *WebSocketHandler) handleListen(ctx context.Context, c *connection) {
	state, err := c.adapter.Toggle()
	if errors.Is(err, speech.ErrUnsupported) {
		h.sendAlert(ctx, c, func(d *i18n.Dictionary) string { return d.Speech.Unsupported })
		return
	}
	h.sendResult(c, ResultData{Event: "listening", State: state.String()})
}

func (h *WebSocketHandler) handleAudio(ctx context.Context, c *connection, raw json.RawMessage) {
	var audio AudioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(c, "invalid audio payload")
		return
	}

	if len(audio.AudioData) > 0 {
		if err := c.adapter.Feed(audio.AudioData, audio.Format); err != nil {
			h.log.Warn("speech audio rejected", zap.String("sessionID", c.sessionID), zap.Error(err))
			if c.adapter.Supported() {
				h.sendAlert(ctx, c, func(d *i18n.Dictionary) string { return d.Speech.Failed })
			} else {
				h.sendAlert(ctx, c, func(d *i18n.Dictionary) string { return d.Speech.Unsupported })
			}
			h.sendResult(c, ResultData{Event: "listening", State: c.adapter.State().String()})
			return
		}
	}
	if !audio.IsFinal {
		return
	}

	session, err := h.controller.Sessions().GetSession(ctx, c.sessionID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	text, err := c.adapter.Finish(ctx, session.Locale)
	h.sendResult(c, ResultData{Event: "listening", State: c.adapter.State().String()})
	if err != nil {
		h.log.Warn("speech recognition failed", zap.String("sessionID", c.sessionID), zap.Error(err))
		h.sendAlert(ctx, c, func(d *i18n.Dictionary) string { return d.Speech.Failed })
		return
	}
	if text == "" {
		return
	}

	h.sendResult(c, ResultData{Event: "transcript", Text: text})
	h.submit(ctx, c, text)
}

func (h *WebSocketHandler) handleLocale(ctx context.Context, c *connection, raw json.RawMessage) {
	var payload LocaleMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(c, "invalid locale payload")
			return
		}
	}

	var (
		session chat.Session
		err     error
	)
	if payload.Locale == "" {
		session, err = h.controller.ToggleLocale(ctx, c.sessionID)
	} else {
		locale, parseErr := i18n.ParseLocale(payload.Locale)
		if parseErr != nil {
			h.sendError(c, parseErr.Error())
			return
		}
		session, err = h.controller.SetLocale(ctx, c.sessionID, locale)
	}
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	welcome, _ := h.controller.Welcome(ctx, c.sessionID)
	h.sendResult(c, ResultData{Event: "session", Session: &session, Welcome: welcome})
}

func (h *WebSocketHandler) sendResult(c *connection, data ResultData) {
	h.send(c, "result", data)
}

// sendAlert 发送带外提示，不写入聊天记录
func (h *WebSocketHandler) sendAlert(ctx context.Context, c *connection, pick func(*i18n.Dictionary) string) {
	locale := i18n.English
	if session, err := h.controller.Sessions().GetSession(ctx, c.sessionID); err == nil {
		locale = i18n.Locale(session.Locale)
	}
	h.send(c, "alert", map[string]string{"message": pick(h.catalog.Get(locale))})
}

func (h *WebSocketHandler) sendError(c *connection, message string) {
	h.send(c, "error", map[string]string{"message": message})
}

func (h *WebSocketHandler) send(c *connection, kind string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := c.write(msg); err != nil {
		h.log.Warn("write failed", zap.String("sessionID", c.sessionID), zap.String("type", kind), zap.Error(err))
	}
}
