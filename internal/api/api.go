// Package api exposes the HTTP surface: the Telegram webhook receiver and
// operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/models"
)

// EventHandler consumes one inbound event for a user.
type EventHandler interface {
	HandleEvent(ctx context.Context, userID int64, ev models.Event) error
}

// Opts holds server configuration.
type Opts struct {
	Addr string

	// SecretToken, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header on webhook calls.
	SecretToken string
}

// Option configures the server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSecretToken enables webhook secret validation.
func WithSecretToken(token string) Option {
	return func(o *Opts) { o.SecretToken = token }
}

// Server receives webhook updates and hands them to the dispatcher.
type Server struct {
	handler EventHandler
	opts    Opts
	srv     *http.Server
	logger  *slog.Logger
}

// NewServer creates a Server around the event handler.
func NewServer(handler EventHandler, logger *slog.Logger, options ...Option) *Server {
	opts := Opts{Addr: ":8080"}
	for _, opt := range options {
		opt(&opts)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: handler, opts: opts, logger: logger}
}

// Run starts serving until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/health", s.healthHandler)

	s.srv = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.opts.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.opts.SecretToken != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s.opts.SecretToken {
		s.logger.Warn("webhook secret mismatch", "remote", r.RemoteAddr)
		writeJSONResponse(w, http.StatusForbidden, models.Error("Forbidden"))
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("webhook decode failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	userID, ev, ok := messaging.EventFromUpdate(update)
	if !ok {
		// Updates the bot does not handle are acknowledged so Telegram
		// stops retrying them.
		writeJSONResponse(w, http.StatusOK, models.Success(nil))
		return
	}

	if err := s.handler.HandleEvent(r.Context(), userID, ev); err != nil {
		s.logger.Error("event handling failed", "userID", userID, "kind", ev.Kind, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process update"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
