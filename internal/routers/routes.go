package routers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"arena/internal/game"
	"arena/internal/pairing"
)

func MatchRoutes(r *chi.Mux, ps *pairing.Service, sh *game.SocketHandler) {
	r.Route("/api/v1/match", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/join", ps.JoinHandler)
			r.Post("/cancel", ps.CancelHandler)
			r.Get("/check", ps.CheckHandler)
			r.Get("/counters", ps.CountersHandler)
		})
		// Viewer sockets outlive any request timeout, so the websocket route
		// sits outside the timeout group.
		r.Get("/ws/{matchID}", sh.ServeWS)
	})
}
