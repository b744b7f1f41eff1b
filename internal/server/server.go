// Package server assembles the HTTP router and owns the server lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"senya-web-backend/internal/config"
	"senya-web-backend/internal/health"
	identityhandler "senya-web-backend/internal/identity/handler"
	identityservice "senya-web-backend/internal/identity/service"
	notehandler "senya-web-backend/internal/note/handler"
	"senya-web-backend/internal/server/middleware"
	"senya-web-backend/internal/telemetry/producer"
	workouthandler "senya-web-backend/internal/workout/handler"
	"senya-web-backend/internal/ws"
)

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 10 * time.Second

// Deps carries everything the router needs. Producer and Tracer may be nil;
// the corresponding middleware then no-ops.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Auth     *identityservice.AuthService
	AuthHTTP *identityhandler.AuthHandler
	Notes    *notehandler.NoteHandler
	Collab   *notehandler.CollabHandler
	Workouts *workouthandler.WorkoutHandler
	Health   *health.Handler
	Gateway  *ws.Gateway
	Producer producer.Producer
	Tracer   trace.Tracer
}

// NewRouter builds the chi router with the full middleware stack and all
// endpoint groups mounted.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Telemetry(d.Producer, d.Tracer, map[string]bool{
		"/health": true,
		"/livez":  true,
		"/readyz": true,
	}))

	if origins := d.Config.CORSOriginsList(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", d.Health.Root)
	r.Get("/health", d.Health.Status)
	r.Get("/livez", d.Health.Live)
	r.Get("/readyz", d.Health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", d.AuthHTTP.Routes)

		// Socket auth happens in-band via the first frame, not the
		// Authorization header.
		r.Get("/note/ws", d.Gateway.Handle(d.Collab.Serve))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(d.Auth, d.Log))

			r.Get("/auth/me", d.AuthHTTP.Me)
			r.Route("/note", d.Notes.Routes)
			r.Route("/workout", d.Workouts.Routes)
		})
	})

	return r
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New returns a Server listening on the configured address.
func New(d Deps) *Server {
	return &Server{
		http: &http.Server{
			Addr:              d.Config.HTTPAddr,
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: d.Log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
