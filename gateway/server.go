package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mrpasztoradam/goadsio"
)

// Server represents the HTTP server
type Server struct {
	config     *Config
	client     *goadsio.Client
	gateway    *Gateway
	handler    *Handler
	log        goadsio.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer creates a new HTTP server with its ADS client
func NewServer(config *Config) (*Server, error) {
	log := newLogger(config.Logging)

	opts := []goadsio.Option{
		goadsio.WithTarget(config.PLC.Target),
		goadsio.WithAMSNetID(config.PLC.AMSNetID),
		goadsio.WithAMSPort(goadsio.Port(config.PLC.AMSPort)),
		goadsio.WithTimeout(config.Timeout()),
		goadsio.WithReconnectInterval(config.ReconnectInterval()),
		goadsio.WithLogger(log),
	}
	if config.PLC.SourceNetID != "" {
		opts = append(opts, goadsio.WithSourceNetID(config.PLC.SourceNetID))
	}

	client, err := goadsio.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to create ADS client: %w", err)
	}

	gw := NewGateway(client, config, log)
	h := NewHandler(gw, config.Gateway.WebSocketBufferSize)

	s := &Server{
		config:  config,
		client:  client,
		gateway: gw,
		handler: h,
		log:     log,
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newLogger builds a structured logger from the logging configuration
func newLogger(cfg LoggingConfig) goadsio.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return goadsio.NewSlogLogger(slog.New(handler))
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	if s.config.Server.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.Server.CORS.AllowedOrigins,
			AllowedMethods:   s.config.Server.CORS.AllowedMethods,
			AllowedHeaders:   s.config.Server.CORS.AllowedHeaders,
			AllowCredentials: s.config.Server.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/symbols", func(r chi.Router) {
			r.Post("/read", s.handler.HandleBatchRead)
			r.Post("/write", s.handler.HandleBatchWrite)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handler.HandleGetSymbolInfo)
				r.Get("/value", s.handler.HandleReadSymbol)
				r.Post("/value", s.handler.HandleWriteSymbol)
			})
		})

		r.Get("/health", s.handler.HandleHealth)
		r.Get("/info", s.handler.HandleInfo)
		r.Get("/version", s.handler.HandleGetVersion)

		r.Get("/state", s.handler.HandleGetState)
		r.Post("/control", s.handler.HandleControl)
	})

	// WebSocket endpoint
	r.Get("/ws/subscribe", s.handler.HandleWebSocket)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name":"goadsio gateway","api":"/api/v1","websocket":"/ws/subscribe"}`)
	})

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting gateway", "address", s.config.Address(), "target", s.config.PLC.Target)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server and closes the ADS client
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down gateway")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway: failed to shutdown HTTP server: %w", err)
	}

	if err := s.client.Close(); err != nil {
		s.log.Warn("client close failed", "error", err)
	}

	s.log.Info("gateway stopped")
	return nil
}

// Router returns the chi router (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
