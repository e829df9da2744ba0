package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/weatherchat/backend/internal/handler/chat"
	"github.com/zhouzirui/weatherchat/backend/internal/handler/realtime"
	"github.com/zhouzirui/weatherchat/backend/internal/handler/speech"
	"github.com/zhouzirui/weatherchat/backend/internal/i18n"
	middlewarePkg "github.com/zhouzirui/weatherchat/backend/internal/middleware"
	"github.com/zhouzirui/weatherchat/backend/internal/service/assistant"
	speechService "github.com/zhouzirui/weatherchat/backend/internal/speech"
	"github.com/zhouzirui/weatherchat/backend/pkg/utils"
)

// Deps 路由所需的核心服务
type Deps struct {
	Controller  *assistant.Controller
	Catalog     *i18n.Catalog
	Recognizer  speechService.Recognizer
	MaxUploadMB int64
	Logger      *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(log.Named("http")),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(deps.Controller, log)
	speechHandler := speech.New(deps.Recognizer, deps.MaxUploadMB, log)
	wsHandler := realtime.NewWebSocketHandler(deps.Controller, deps.Catalog, deps.Recognizer, int(deps.MaxUploadMB<<20), log)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"speech": deps.Recognizer != nil,
		})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
