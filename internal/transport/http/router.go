package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts health, participant websocket and admin routes.
func NewRouter(ws *WSHandler, admin *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireToken)
		r.Get("/window", admin.ActiveWindow)
		r.Post("/window", admin.OpenWindow)
		r.Delete("/window", admin.CloseWindow)
		r.Get("/questions", admin.Questions)
		r.Post("/broadcast", admin.Broadcast)
		r.Get("/sessions/{key}/leaderboard", admin.Standings)
	})
	return r
}
