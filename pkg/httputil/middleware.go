package httputil

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/pos-allocation/pkg/actor"
	"github.com/medflow/pos-allocation/pkg/errors"
	"github.com/medflow/pos-allocation/pkg/logger"
	"github.com/medflow/pos-allocation/pkg/permissions"
	"github.com/medflow/pos-allocation/pkg/token"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

// RequestID middleware adds a request ID to each request
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger middleware logs HTTP requests
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Authenticate runs further down the chain and records the actor here
			holder := &actorHolder{}
			r = r.WithContext(context.WithValue(r.Context(), actorHolderKey{}, holder))

			next.ServeHTTP(wrapped, r)

			event := log.Info().
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr)
			if holder.actor != nil {
				event = event.Int64("actor_id", holder.actor.ID)
			}
			event.Msg("HTTP request")
		})
	}
}

// Recoverer middleware recovers from panics
func Recoverer(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error().
						Interface("panic", err).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					Error(w, errors.Internal("internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate validates the bearer token and attaches the actor to the request context.
func Authenticate(tokens *token.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || tokenString == "" {
				Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				Error(w, err)
				return
			}

			a := claims.Actor()
			if holder, ok := r.Context().Value(actorHolderKey{}).(*actorHolder); ok {
				holder.actor = a
			}

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

// RequirePermission rejects requests whose actor lacks the given permission.
// Must run after Authenticate.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := actor.FromContext(r.Context())
			if a == nil {
				Error(w, errors.Unauthorized("authentication required"))
				return
			}
			if !permissions.HasPermission(a.Permissions, permission) {
				Error(w, errors.New("FORBIDDEN", "missing permission "+permission, http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type actorHolderKey struct{}

type actorHolder struct {
	actor *actor.Actor
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
