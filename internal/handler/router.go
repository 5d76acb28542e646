package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/ergodesk/backend/internal/handler/chat"
	"github.com/zhouzirui/ergodesk/backend/internal/handler/persona"
	"github.com/zhouzirui/ergodesk/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/ergodesk/backend/internal/middleware"
	personaModel "github.com/zhouzirui/ergodesk/backend/internal/model/persona"
	chatService "github.com/zhouzirui/ergodesk/backend/internal/service/chat"
	"github.com/zhouzirui/ergodesk/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Count(),
		})
	})

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc)
	wsHandler := ws.New(chatSvc, logger.Named("ws"))

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
