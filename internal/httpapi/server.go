// Package httpapi exposes the simulation core over the JSON HTTP API (§6),
// the way the teacher's internal/server package wraps its engine: a plain
// net/http.ServeMux, a CORS wrapper round every route, and handlers that
// translate core errors into {code, message} bodies instead of letting
// them leak as Go error strings.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/avdanilov/dogwalk-server/internal/app"
	"github.com/avdanilov/dogwalk-server/pkg/logger"
)

// Server wires the Application facade to the JSON HTTP API plus a static
// file server for everything outside /api/.
type Server struct {
	App     *app.Application
	WWWRoot string
}

// New builds a Server over an already-wired Application.
func New(application *app.Application, wwwRoot string) *Server {
	return &Server{App: application, WWWRoot: wwwRoot}
}

// Handler returns the fully-routed http.Handler, ready to pass to
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/maps", s.wrap(s.handleMaps))
	mux.HandleFunc("/api/v1/maps/", s.wrap(s.handleMapByID))
	mux.HandleFunc("/api/v1/game/join", s.wrap(s.handleJoin))
	mux.HandleFunc("/api/v1/game/players", s.wrap(s.authed(s.handlePlayers)))
	mux.HandleFunc("/api/v1/game/state", s.wrap(s.authed(s.handleState)))
	mux.HandleFunc("/api/v1/game/player/action", s.wrap(s.authed(s.handleAction)))
	mux.HandleFunc("/api/v1/game/tick", s.wrap(s.handleTick))
	mux.HandleFunc("/api/v1/game/records", s.wrap(s.handleRecords))

	mux.HandleFunc("/health", s.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	mux.HandleFunc("/version", s.wrap(s.handleVersion))

	mux.HandleFunc("/", s.wrap(s.handleStatic))

	return mux
}

// wrap adds CORS headers and access logging around every route, the way
// the teacher's enableCORS wraps every handler in internal/server/http.go.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if isAPIPath(r.URL.Path) {
			w.Header().Set("Cache-Control", "no-cache")
		}
		next(w, r)
		logger.Log.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("httpapi: request handled")
	}
}

func isAPIPath(path string) bool {
	return len(path) >= 5 && path[:5] == "/api/"
}

// authed extracts and validates the bearer token before delegating to next;
// next receives the resolved player.
func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, player *app.Player)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeInvalidToken(w)
			return
		}
		player, err := s.App.Authenticate(token)
		if err != nil {
			writeUnknownToken(w)
			return
		}
		next(w, r, player)
	}
}

func bearerToken(r *http.Request) (app.Token, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	raw := strings.ToLower(header[len(prefix):])
	if !app.ValidTokenShape(raw) {
		return "", false
	}
	return app.Token(raw), true
}
