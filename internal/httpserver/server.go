// internal/httpserver/server.go
//
// HTTP server wiring for the Pidro table server.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Table endpoints: mounted under /tables (routes_tables.go).
//   - Seat tokens: claim a human seat, then act on it with a bearer JWT (auth.go).
//   - Observer stream: GET /tables/{id}/ws (ws.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled.
//   - The websocket route is mounted outside the handler timeout.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/store"
	"github.com/robalobadob/pidro/internal/table"
)

// Options configures a Server.
type Options struct {
	Store   store.Store
	Factory *table.Factory
	// Archive serves /history; nil disables it.
	Archive      archive.Repository
	JWTSecret    string
	ClientOrigin string
	// AIDefault fills in model settings for AI seats named at table creation.
	AIDefault game.AIConfig
	// TokenTTL bounds seat tokens; defaults to 24h.
	TokenTTL time.Duration
}

// Server bundles router, table registry and archive.
type Server struct {
	r        *chi.Mux
	store    store.Store
	factory  *table.Factory
	archive  archive.Repository
	secret   []byte
	aiConfig game.AIConfig
	tokenTTL time.Duration
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &Server{
		r:        chi.NewRouter(),
		store:    opts.Store,
		factory:  opts.Factory,
		archive:  opts.Archive,
		secret:   []byte(opts.JWTSecret),
		aiConfig: opts.AIDefault,
		tokenTTL: ttl,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)         // add X-Request-ID
	s.r.Use(chimw.RealIP)            // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)         // recover from panics
	s.r.Use(jsonContentType)         // default JSON responses
	s.r.Use(cors(opts.ClientOrigin)) // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"pidro-go","endpoints":["/health","POST /tables","GET /tables/{id}","/tables/{id}/ws"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/tables/{id}/ws", s.handleWS)
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		s.mountTables(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (used as the http.Server handler).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin
// (default http://localhost:5173).
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
