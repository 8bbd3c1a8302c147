package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gametree/searcher"
	"gametree/session"
	"gametree/tree"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type Option func(s *Server)

// WithSpeed sets the default delay between streamed evaluation steps
func WithSpeed(speed time.Duration) Option {
	return func(s *Server) {
		if speed >= 0 {
			s.speed = speed
		}
	}
}

// WithGatherer exposes the given registry on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// Server is the HTTP and websocket front of a session
type Server struct {
	session  *session.Session
	speed    time.Duration
	gatherer prometheus.Gatherer
	router   chi.Router
}

func NewServer(sess *session.Session, options ...Option) *Server {
	s := &Server{
		session:  sess,
		speed:    500 * time.Millisecond,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, option := range options {
		option(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// Recoverer sits inside the logger so recovered panics are logged as 500
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/tree", func(r chi.Router) {
		r.Get("/", s.handleGetTree)
		r.Post("/", s.handleDraw)
		r.Delete("/", s.handleClear)
		r.Post("/edges", s.handleConnect)
		r.Get("/validate", s.handleValidate)
	})
	r.Get("/tree.dot", s.handleDOT)
	r.Post("/evaluate", s.handleEvaluate)
	r.Get("/ws/evaluate", s.handleStream)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type drawRequest struct {
	Depth         int             `json:"depth"`
	NodesPerLevel []int           `json:"nodes_per_level"`
	LeafValues    json.RawMessage `json:"leaf_values"` // "3, 5, 2" or [3, 5, 2]
	Manual        bool            `json:"manual"`
}

func (d drawRequest) config() (tree.GenerateConfig, error) {
	cfg := tree.GenerateConfig{
		Depth:         d.Depth,
		NodesPerLevel: d.NodesPerLevel,
		Manual:        d.Manual,
	}
	if len(d.LeafValues) == 0 {
		return cfg, nil
	}
	var text string
	if err := json.Unmarshal(d.LeafValues, &text); err == nil {
		values, err := tree.ParseLeafValues(text)
		if err != nil {
			return cfg, err
		}
		cfg.LeafValues = values
		return cfg, nil
	}
	if err := json.Unmarshal(d.LeafValues, &cfg.LeafValues); err != nil {
		return cfg, fmt.Errorf("%w: %v", tree.ErrInvalidLeafValue, err)
	}
	return cfg, nil
}

type connectRequest struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type evaluateRequest struct {
	Algorithm string `json:"algorithm"`
}

type EvaluateResponse struct {
	ID     int                `json:"id"`
	Report session.ReportView `json:"report"`
	Tree   session.View       `json:"tree"`
}

type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	view, err := s.session.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	}
	cfg, err := req.config()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Draw(cfg); err != nil {
		writeError(w, err)
		return
	}
	s.handleGetTree(w, r)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Clear(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	}
	if err := s.session.Connect(tree.ID(req.Parent), tree.ID(req.Child)); err != nil {
		writeError(w, err)
		return
	}
	s.handleGetTree(w, r)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	err := s.session.Validate()
	if errors.Is(err, session.ErrNoTree) {
		writeError(w, err)
		return
	}
	resp := ValidateResponse{Valid: err == nil}
	if err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				resp.Errors = append(resp.Errors, e.Error())
			}
		} else {
			resp.Errors = []string{err.Error()}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payload"})
		return
	}
	alg, err := searcher.ParseAlgorithm(req.Algorithm)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.session.Run(r.Context(), alg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{
		ID:     res.ID,
		Report: session.NewReportView(res.Report),
		Tree:   res.View,
	})
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	dot, err := s.session.DOT()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dot)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoTree):
		return http.StatusNotFound
	case errors.Is(err, searcher.ErrNoRoot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, searcher.ErrUnknownAlgorithm),
		errors.Is(err, tree.ErrInvalidDepth),
		errors.Is(err, tree.ErrNoLeaves),
		errors.Is(err, tree.ErrInsufficientChildren),
		errors.Is(err, tree.ErrInvalidLeafValue),
		errors.Is(err, tree.ErrUnknownNode),
		errors.Is(err, tree.ErrSelfLoop),
		errors.Is(err, tree.ErrDuplicateEdge),
		errors.Is(err, tree.ErrMultipleParents):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
