package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/internal/identity"
	"github.com/dmitrymomot/apm/pkg/health"
	"github.com/dmitrymomot/apm/pkg/logger"
	"github.com/dmitrymomot/apm/pkg/selector"
	"github.com/dmitrymomot/apm/pkg/store"
)

const maxBodyBytes = 1 << 20

// Store is what the HTTP surface needs from the state container.
type Store interface {
	selector.Source
	Dispatch(store.Action) error
}

var _ Store = (*store.Store)(nil)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and stream logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChecker serves readiness from c. Without it readiness only reflects
// liveness.
func WithChecker(c *health.Checker) Option {
	return func(s *Server) {
		s.checker = c
	}
}

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCORSOrigins allows browsers on origins to call the API.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithKeepAlive sets the comment interval on event streams. Default: 15s.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// Server is the HTTP surface of the store. Reads go through the selectors;
// writes only dispatch actions and answer 202 Accepted, the outcome shows
// up in later reads and on the event streams.
type Server struct {
	store     Store
	catalog   *catalog.Selectors
	identity  *identity.Selectors
	logger    *slog.Logger
	checker   *health.Checker
	metrics   http.Handler
	origins   []string
	keepAlive time.Duration

	router    chi.Router
	closing   chan struct{}
	closeOnce sync.Once
}

// New builds the router over st.
func New(st Store, cat *catalog.Selectors, ident *identity.Selectors, opts ...Option) *Server {
	s := &Server{
		store:     st,
		catalog:   cat,
		identity:  ident,
		logger:    logger.NewNope(),
		keepAlive: 15 * time.Second,
		closing:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.checker == nil {
		s.checker = health.NewChecker(nil)
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CloseStreams ends every open event stream. http.Server.Shutdown does not
// cancel in-flight requests, so Run calls this when shutdown begins.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(s.logger), accessLog(s.logger), cors(s.origins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(s.checker))
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.getProducts)
		r.Post("/", s.createProduct)
		r.Get("/events", s.productEvents)
		r.Post("/load", s.loadProducts)
		r.Post("/code", s.toggleProductCode)
		r.Post("/filter", s.setListFilter)
		r.Post("/current/new", s.initializeCurrentProduct)
		r.Post("/current/{id}", s.setCurrentProduct)
		r.Delete("/current", s.clearCurrentProduct)
		r.Put("/{id}", s.updateProduct)
		r.Delete("/{id}", s.deleteProduct)
	})

	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Post("/mask", s.maskUserName)
	})

	s.router = r
}

// dispatch answers 202 once the action is accepted by the store.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, action store.Action) {
	if err := s.store.Dispatch(action); err != nil {
		s.logger.WarnContext(r.Context(), "dispatch rejected",
			slog.String("kind", string(action.Kind())),
			slog.Any("error", err),
		)
		if errors.Is(err, store.ErrDisposed) {
			writeError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, accepted{Kind: string(action.Kind()), RequestID: RequestID(r.Context())})
}

type accepted struct {
	Kind      string `json:"kind"`
	RequestID string `json:"requestId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var errEmptyBody = errors.New("request body is empty")

func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}
