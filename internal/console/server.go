package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/salesdeck/insight-console/internal/config"
	"github.com/salesdeck/insight-console/internal/events"
	"github.com/salesdeck/insight-console/internal/store"
	"github.com/salesdeck/insight-console/pkg/metrics"
	"github.com/salesdeck/insight-console/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type viewContextKey struct{}

var (
	metricMiddlewareOnce sync.Once
	metricMiddleware     *metrics.Middleware
)

// Server serves the console REST api on top of the views.
type Server struct {
	cfg      *config.Config
	views    Views
	feed     *events.FeedWriter
	store    store.Store
	listener net.Listener
}

// New returns a console server. feed and store may be nil.
func New(
	cfg *config.Config,
	views Views,
	feed *events.FeedWriter,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		views:    views,
		feed:     feed,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Router() http.Handler {
	metricMiddlewareOnce.Do(func() {
		metricMiddleware = metrics.NewMiddleware("insight_console")
		metricMiddleware.MustRegisterDefault()
	})

	router := chi.NewRouter()
	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		chiMiddleware.RequestID,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
		render.SetContentType(render.ContentTypeJSON),
	)

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1/views", func(r chi.Router) {
		r.Get("/", s.listViews)
		r.Route("/{kind}", func(r chi.Router) {
			r.Use(s.withView)
			r.Post("/jobs", s.submitJob)
			r.Get("/jobs", s.listJobs)
			r.Delete("/jobs/{id}", s.cancelJob)
			r.Get("/results", s.listResults)
			r.Delete("/results/{id}", s.deleteResult)
			r.Get("/notifications", s.listNotifications)
			r.Get("/history", s.listHistory)
		})
	})

	return router
}

// withView resolves the {kind} url parameter into a view.
func (s *Server) withView(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "kind")
		v, ok := s.views[name]
		if !ok {
			_ = render.Render(w, r, errorReply(http.StatusNotFound, fmt.Errorf("unknown view %q", name)))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), viewContextKey{}, v)))
	})
}

func viewFromContext(ctx context.Context) *View {
	return ctx.Value(viewContextKey{}).(*View)
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("console").Info("Initializing console server")

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		zap.S().Named("console").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("console").Info("console server terminated")
	}()

	zap.S().Named("console").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
