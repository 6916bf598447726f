package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pongserver/internal/ws"
)

func SetupRoutes(api *API, sock ws.Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/matches", api.ListMatches)
	r.Get("/ws", sock.Handler())

	r.Route("/tournaments", func(r chi.Router) {
		r.Post("/", api.CreateTournament)
		r.Post("/{id}/pairings", api.NextPairing)
		r.Post("/{id}/results", api.RecordResult)
		r.Get("/{id}", api.GetTournament)
	})

	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
