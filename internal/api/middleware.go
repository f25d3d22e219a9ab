package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenAuth validates the "Authorization: Token <token>" header and adds the
// claims to the request context.
func TokenAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}

			scheme, token, _ := strings.Cut(header, " ")
			if !strings.EqualFold(scheme, "Token") {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			token = strings.TrimSpace(token)
			if token == "" || strings.Contains(token, " ") {
				unauthorized(w, "Invalid token header. No credentials provided.")
				return
			}

			claims, err := auth.ValidateToken(secret, token)
			if err != nil {
				slog.Debug("rejected token", "error", err, "remote", r.RemoteAddr)
				unauthorized(w, "Invalid token.")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Token")
	jsonDetail(w, http.StatusUnauthorized, message)
}

// GetClaims retrieves the token claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
