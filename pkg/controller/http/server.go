package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lunar-city/ticketbot/pkg/utils/logging"
)

type Server struct {
	router             *chi.Mux
	webhookHandler     *SlackWebhookHandler
	interactionHandler *SlackInteractionHandler
	signingSecret      string
}

type Options func(*Server)

// WithSlackWebhook registers the Events API and interaction endpoints
// behind signature verification.
func WithSlackWebhook(webhook *SlackWebhookHandler, interaction *SlackInteractionHandler, signingSecret string) Options {
	return func(s *Server) {
		s.webhookHandler = webhook
		s.interactionHandler = interaction
		s.signingSecret = signingSecret
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logging.From(r.Context()).Error("failed to write health response", "error", err)
		}
	})

	// Webhooks carry no session auth; the signature middleware is the
	// trust boundary.
	if s.webhookHandler != nil {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.signingSecret))

			r.Post("/event", s.webhookHandler.ServeHTTP)
			r.Post("/interaction", s.interactionHandler.ServeHTTP)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
