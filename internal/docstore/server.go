// Package docstore is the cloud document store behind the "cloud" backend.
// Every request carries a bearer token; the token's subject picks the user
// whose collection the request reads and writes.
package docstore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/docstore/api"
	"github.com/Makepad-fr/tada/internal/remote"
)

// Backend opens user collections. sqlitestore.Backend is the production one.
type Backend interface {
	Collection(uid string) remote.Collection
	Ping(ctx context.Context) error
}

// Config wires a Server.
type Config struct {
	Backend Backend
	Secret  []byte
	Logger  zerolog.Logger
	// Registry receives the request metrics and is served on /metrics.
	// A fresh one is created when nil.
	Registry *prometheus.Registry
	// PingInterval keeps watch connections alive. Defaults to 30s.
	PingInterval time.Duration
	Now          func() time.Time
}

type Server struct {
	backend  Backend
	secret   []byte
	log      zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics
	ping     time.Duration
	now      func() time.Time
	upgrader websocket.Upgrader
}

func New(cfg Config) (*Server, error) {
	if cfg.Backend == nil {
		return nil, errors.New("docstore: backend is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("docstore: token secret is required")
	}
	s := &Server{
		backend:  cfg.Backend,
		secret:   cfg.Secret,
		log:      cfg.Logger,
		registry: cfg.Registry,
		ping:     cfg.PingInterval,
		now:      cfg.Now,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.ping <= 0 {
		s.ping = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.metrics = newMetrics(s.registry)
	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.observe)

	r.Methods(http.MethodGet).Path(api.PathHealth).HandlerFunc(s.health)
	r.Methods(http.MethodGet).Path(api.PathMetrics).Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	v1 := func(method, path string, h http.HandlerFunc) {
		r.Methods(method).Path(path).Handler(s.authenticate(h))
	}
	v1(http.MethodGet, api.PathTodos, s.listTodos)
	v1(http.MethodGet, api.PathTodosWatch, s.watchTodos)
	v1(http.MethodGet, api.PathTodo, s.getTodo)
	v1(http.MethodPut, api.PathTodo, s.putTodo)
	v1(http.MethodPatch, api.PathTodo, s.patchTodo)
	v1(http.MethodDelete, api.PathTodo, s.deleteTodo)
	v1(http.MethodPost, api.PathBatch, s.batch)
	v1(http.MethodGet, api.PathCategories, s.getCategories)
	v1(http.MethodPut, api.PathCategories, s.putCategories)
	v1(http.MethodGet, api.PathCategoriesWatch, s.watchCategories)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
