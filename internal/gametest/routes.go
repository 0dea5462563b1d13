// Package gametest provides in-process game servers for exercising the client:
// a Script that plays back fixed frames, and a Matchmaker that pairs real clients.
// Neither knows any game rules.
package gametest

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
)

const GamePath = "/game"

func routes(game http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Get(GamePath, game)
	r.Get("/healthz", Healthz)
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// WebSocketURL turns an httptest server URL into the game endpoint.
func WebSocketURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + GamePath
}
