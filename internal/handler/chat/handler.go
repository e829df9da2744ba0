package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	"github.com/zhouzirui/weatherchat/backend/internal/model/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/model/weather"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	chatService "github.com/zhouzirui/weatherchat/backend/internal/service/chat"
	"github.com/zhouzirui/weatherchat/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	controller *assistant.Controller
	log        *zap.Logger
}

// New 创建聊天处理器
func New(controller *assistant.Controller, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		controller: controller,
		log:        log.Named("chat"),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.handleGetSession)
		sr.Post("/messages", h.handleSendMessage)
		sr.Post("/locale", h.handleLocale)
		sr.Post("/theme", h.handleTheme)
	})
}

type sessionView struct {
	Session chat.Session `json:"session"`
	Welcome string       `json:"welcome"`
}

type transcriptView struct {
	Session     chat.Session    `json:"session"`
	Welcome     string          `json:"welcome"`
	Messages    []chat.Message  `json:"messages"`
	LastWeather *weather.Result `json:"lastWeather,omitempty"`
	LastSongs   []weather.Song  `json:"lastSongs,omitempty"`
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Locale string `json:"locale"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var locale i18n.Locale
	if payload.Locale != "" {
		parsed, err := i18n.ParseLocale(payload.Locale)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		locale = parsed
	}

	session, err := h.controller.Sessions().CreateSession(r.Context(), locale)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondSession(w, r, http.StatusCreated, session)
}

// handleGetSession 返回会话、欢迎语与完整记录
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snap, err := h.controller.Sessions().Snapshot(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	welcome, err := h.controller.Welcome(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, transcriptView{
		Session:     snap.Session,
		Welcome:     welcome,
		Messages:    snap.Messages,
		LastWeather: snap.LastWeather,
		LastSongs:   snap.LastSongs,
	})
}

// handleSendMessage 提交一条用户消息并返回机器人回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bot, err := h.controller.Handle(r.Context(), sessionID, payload.Content)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, bot)
}

// handleLocale 切换或设置语言；请求体为空时切换
func (h *Handler) handleLocale(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Locale string `json:"locale"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		session chat.Session
		err     error
	)
	if payload.Locale == "" {
		session, err = h.controller.ToggleLocale(r.Context(), sessionID)
	} else {
		locale, parseErr := i18n.ParseLocale(payload.Locale)
		if parseErr != nil {
			utils.RespondError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		session, err = h.controller.SetLocale(r.Context(), sessionID, locale)
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, session)
}

// handleTheme 切换明暗主题
func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	session, err := h.controller.ToggleTheme(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, session)
}

func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, status int, session chat.Session) {
	welcome, err := h.controller.Welcome(r.Context(), session.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, status, sessionView{Session: session, Welcome: welcome})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("chat request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
