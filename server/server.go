// Package server exposes the waypoint HTTP API: credential auth, signed
// recognition tokens, transcript parsing, and trip and expense storage.
package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/waypointhq/waypoint-core/ai"
	"github.com/waypointhq/waypoint-core/trips"
	"github.com/waypointhq/waypoint-core/voice/speechtotext/iflytek"
)

type Server struct {
	store       trips.Store
	planner     *ai.Planner
	credentials iflytek.Credentials
	auth        *authStore
}

type Option func(*Server)

func WithStore(store trips.Store) Option {
	return func(s *Server) { s.store = store }
}

func WithPlanner(planner *ai.Planner) Option {
	return func(s *Server) { s.planner = planner }
}

// WithRecognitionCredentials enables the voice token endpoint. The secret
// never leaves this process; clients only receive signed URLs.
func WithRecognitionCredentials(credentials iflytek.Credentials) Option {
	return func(s *Server) { s.credentials = credentials }
}

func New(opts ...Option) *Server {
	s := &Server{
		store: trips.NewMemoryStore(),
		auth:  newAuthStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table. The whole API is wrapped in one otelhttp
// handler so every route reports spans under its pattern.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/voice/token", s.requireUser(s.handleVoiceToken))

	mux.HandleFunc("POST /api/parse-trip", s.requireUser(s.handleParseTrip))
	mux.HandleFunc("POST /api/parse-expense", s.requireUser(s.handleParseExpense))

	mux.HandleFunc("GET /api/trips", s.requireUser(s.handleListTrips))
	mux.HandleFunc("POST /api/trips", s.requireUser(s.handleCreateTrip))
	mux.HandleFunc("GET /api/trips/{id}", s.requireUser(s.handleGetTrip))
	mux.HandleFunc("PUT /api/trips/{id}", s.requireUser(s.handleUpdateTrip))
	mux.HandleFunc("DELETE /api/trips/{id}", s.requireUser(s.handleDeleteTrip))
	mux.HandleFunc("POST /api/trips/{id}/generate", s.requireUser(s.handleGenerateItinerary))

	mux.HandleFunc("GET /api/trips/{id}/expenses", s.requireUser(s.handleListExpenses))
	mux.HandleFunc("POST /api/trips/{id}/expenses", s.requireUser(s.handleAddExpense))
	mux.HandleFunc("GET /api/trips/{id}/expenses/stats", s.requireUser(s.handleExpenseStats))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireUser(s.handleDeleteExpense))

	return otelhttp.NewHandler(mux, "waypoint-api")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
