package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Server serves the HTTP API.
type Server struct {
	ports  *Ports
	config Config
	router *mux.Router
}

// NewServer creates a server with all routes registered.
func NewServer(ports *Ports, config Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if config.WhatsAppTopK <= 0 {
		config.WhatsAppTopK = defaultWhatsAppTopK
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		ports:  ports,
		config: config,
	}
	s.router = s.newRouter()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(corsMiddleware(s.config.AllowedOrigins))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/docs/{doc_id}", s.handleDocument).Methods(http.MethodGet)
	r.HandleFunc("/webhooks/whatsapp", s.handleWhatsAppVerify).Methods(http.MethodGet)
	r.HandleFunc("/webhooks/whatsapp", s.handleWhatsAppMessage).Methods(http.MethodPost)

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
