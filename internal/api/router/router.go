package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"telematics/internal/api/handler"
	"telematics/internal/api/middleware"
	"telematics/internal/api/util"
	"telematics/internal/core/service"
)

type Deps struct {
	DeviceService   service.DeviceService
	PositionService service.PositionService
	Tokens          *util.TokenManager
	APIKey          string
}

func NewRouter(deps Deps) http.Handler {
	deviceHandler := handler.NewDeviceHandler(deps.DeviceService)
	positionHandler := handler.NewPositionHandler(deps.PositionService)
	authHandler := handler.NewAuthHandler(deps.Tokens, deps.APIKey)
	authMiddleware := middleware.NewAuthMiddleware(deps.Tokens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		util.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", authHandler.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/devices", deviceHandler.ListStates)
			r.Route("/devices/{id}", func(r chi.Router) {
				r.Get("/state", deviceHandler.GetState)
				r.Get("/alerts", deviceHandler.GetAlerts)
				r.Post("/commands", deviceHandler.EnqueueCommand)
				r.Get("/positions", positionHandler.GetPositions)
				r.Get("/positions/latest", positionHandler.GetLatestPosition)
				r.Get("/track", positionHandler.GetTrack)
			})
		})
	})

	return r
}
