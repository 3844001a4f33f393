package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"formcfg/internal/bootstrap/logging"
	"formcfg/internal/errs"
	"formcfg/internal/usecase/formconfig"
)

const (
	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type handler struct {
	svc *formconfig.Service
}

// NewRouter mounts the JSON API for forms, questions, event configurations
// and the event log.
func NewRouter(svc *formconfig.Service) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestMeta)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/forms", func(r chi.Router) {
			r.Get("/", h.listForms)
			r.Post("/", h.createForm)
			r.Route("/{formID}", func(r chi.Router) {
				r.Get("/", h.getForm)
				r.Put("/", h.updateForm)
				r.Delete("/", h.deleteForm)
				r.Post("/submit", h.submitForm)
				r.Get("/events", h.listFormEvents)
				r.Post("/questions", h.addQuestion)
				r.Put("/questions/{questionID}", h.updateQuestion)
				r.Delete("/questions/{questionID}", h.deleteQuestion)
			})
		})
		r.Route("/event-configs", func(r chi.Router) {
			r.Get("/", h.listEventConfigs)
			r.Post("/", h.createEventConfig)
			r.Route("/{eventConfigID}", func(r chi.Router) {
				r.Get("/", h.getEventConfig)
				r.Put("/", h.updateEventConfig)
				r.Delete("/", h.deleteEventConfig)
				r.Get("/events", h.listEventConfigEvents)
			})
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.listEvents)
			r.Post("/replay", h.replayPending)
			r.Get("/{eventID}", h.getEvent)
			r.Post("/{eventID}/redeliver", h.redeliver)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Success: false, Error: "Page not found"})
	})
	return r
}

// Serve runs the API on addr until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, addr string, svc *formconfig.Service) error {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "httpapi"))

	server := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return logCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logCtx, "http api listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(err, "listen http")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, "shutdown http")
	}
	logging.Info(logCtx, "http api stopped")
	return nil
}

// requestMeta tags the request context with a request id that ends up in
// event_metadata of every event appended while serving it.
func requestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := formconfig.WithRequestMeta(r.Context(), formconfig.RequestMeta{RequestID: requestID, Source: "http"})
		ctx = logging.WithAttrs(ctx, slog.String("request_id", requestID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
