// Package server exposes the conversation engine over HTTP: a JSON chat API
// for web clients and a Twilio webhook for WhatsApp.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/otrade-bot/server/internal/engine"
	"github.com/otrade-bot/server/internal/whatsapp"
	logx "github.com/otrade-bot/server/pkg/logger"
)

// ================ Config ================

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	RequestTimeout int    `envconfig:"SERVER_REQUEST_TIMEOUT_SECONDS" default:"60"`

	// InvoiceDir, when set, is served read-only under /invoices so the
	// document references in confirmations resolve.
	InvoiceDir string `envconfig:"PDF_OUTPUT_DIR" default:"invoices"`
}

// Server wires the engine into an http.Server.
type Server struct {
	cfg    Config
	engine *engine.Engine
	wa     whatsapp.Sender // nil when Twilio is not configured
	http   *http.Server
}

func New(cfg Config, eng *engine.Engine, wa whatsapp.Sender) *Server {
	s := &Server{cfg: cfg, engine: eng, wa: wa}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeout) * time.Second))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Post("/chat/reset", s.handleReset)
	r.Post("/webhook/whatsapp", s.handleWhatsAppWebhook)

	if cfg.InvoiceDir != "" {
		fs := http.StripPrefix("/invoices/", http.FileServer(http.Dir(cfg.InvoiceDir)))
		r.Get("/invoices/*", fs.ServeHTTP)
	}

	s.http = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the listener fails or Shutdown
// is called.
func (s *Server) ListenAndServe() error {
	logx.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
