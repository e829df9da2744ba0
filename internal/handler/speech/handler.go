package speech

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	speechsvc "github.com/zhouzirui/weatherchat/backend/internal/speech"
	"github.com/zhouzirui/weatherchat/backend/pkg/utils"
)

// Handler 语音服务的HTTP处理器
type Handler struct {
	recognizer  speechsvc.Recognizer
	maxUploadMB int64
	log         *zap.Logger
}

// New 创建语音处理器。recognizer 为 nil 时接口返回 501。
func New(recognizer speechsvc.Recognizer, maxUploadMB int64, log *zap.Logger) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		recognizer:  recognizer,
		maxUploadMB: maxUploadMB,
		log:         log.Named("speech"),
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/transcribe", h.handleTranscribe)
		speechRouter.Get("/health", h.handleHealth)
	})
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Format   string `json:"format"`
}

// handleTranscribe 处理一次性语音转文本请求
func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if h.recognizer == nil {
		utils.RespondError(w, http.StatusNotImplemented, speechsvc.ErrUnsupported.Error())
		return
	}

	limit := h.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	var language string
	if raw := strings.TrimSpace(r.FormValue("language")); raw != "" {
		locale, err := i18n.ParseLocale(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		language = string(locale)
	}

	format := inferAudioFormat(header.Filename)
	text, err := speechsvc.Transcribe(r.Context(), h.recognizer, file, int(header.Size), format, language)
	if err != nil {
		if errors.Is(err, speechsvc.ErrEmptyAudio) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("transcription failed", zap.String("format", format), zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "speech recognition failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, transcribeResponse{Text: text, Language: language, Format: format})
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "speech",
		"supported": h.recognizer != nil,
	})
}

// inferAudioFormat 从文件名推断音频格式
func inferAudioFormat(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm", "ogg", "flac":
		return ext
	default:
		return speechsvc.DefaultFormat
	}
}
