package api

import (
	"context"
	"errors"
	"fmt"
	"invitebot/internal/config"
	errorsHandler "invitebot/internal/http-server/handlers/errors"
	"invitebot/internal/http-server/handlers/health"
	"invitebot/internal/http-server/handlers/links"
	"invitebot/internal/http-server/middleware/authenticate"
	"invitebot/internal/http-server/middleware/timeout"
	"invitebot/lib/sl"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requests wait on the remote platform, a full batch with flood waits takes minutes
const requestTimeout = 10 * time.Minute

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	links.Core
	health.Status
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server
}

func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errorsHandler.NotFound(log))
	router.MethodNotAllowed(errorsHandler.NotAllowed(log))

	router.Get("/healthz", health.Health(handler))
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(timeout.Timeout(requestTimeout))
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/links", func(r chi.Router) {
			r.Get("/", links.List(log, handler))
			r.Get("/export", links.Export(log, handler))
			r.Get("/owner/{id}", links.ByOwner(log, handler))
			r.Post("/owner/{id}", links.Create(log, handler))
		})
		rootApi.Post("/sync", links.Sync(log, handler))
	})

	return router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("stopping api server")
	return s.httpServer.Shutdown(ctx)
}
