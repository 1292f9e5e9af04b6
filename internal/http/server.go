package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tracker/internal/log"
	"tracker/internal/services"
)

type Server struct {
	http.Server
	tracker     *services.Tracker
	logger      *log.Logger
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

type Option func(*options)

type options struct {
	rateLimit int
}

// WithRateLimit overrides the per-client requests-per-minute budget.
func WithRateLimit(perMinute int) Option {
	return func(o *options) { o.rateLimit = perMinute }
}

// NewServer wires the tracker endpoints onto a chi router listening on addr.
func NewServer(addr string, tracker *services.Tracker, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	o := options{rateLimit: requestsPerMinute}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		tracker:     tracker,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(o.rateLimit),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(observeDuration)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/tasks", s.handleListTasks)
		r.Post("/tasks", s.handleCreateTask)
		r.Get("/summary", s.handleSummary)
		r.Get("/report", s.handleReport)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start listens in the background. Listen errors are returned immediately;
// serve errors after startup are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("HTTP server listening", log.Operation(log.OpStartup), zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func observeDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(status/100)+"xx").
			Observe(time.Since(start).Seconds())
	})
}
