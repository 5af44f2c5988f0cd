package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Shivanand-hulikatti/team-registration/internal/auth"
)

// Headers set by the upstream auth proxy and by API clients.
const (
	HeaderOwnerID       = "X-Owner-ID"
	HeaderOwnerLabel    = "X-Owner-Label"
	HeaderSecurityToken = "X-Security-Token"
	HeaderClientVersion = "X-Client-Version"
)

type ctxKey int

const identityKey ctxKey = iota

// Logger writes one structured access log line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// CORS is permissive; the API is meant to sit behind the auth proxy.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers",
			"Content-Type, "+HeaderOwnerID+", "+HeaderOwnerLabel+", "+HeaderSecurityToken+", "+HeaderClientVersion)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Identity attaches the caller identity from the auth proxy headers.
func Identity(roles *auth.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := roles.Resolve(r.Header.Get(HeaderOwnerID), r.Header.Get(HeaderOwnerLabel))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
		})
	}
}

func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()).Anonymous() {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers without privilege: 401 if anonymous, 403
// otherwise.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		switch {
		case id.Anonymous():
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case !id.Privileged:
			writeError(w, http.StatusForbidden, "forbidden: admin access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// SecurityToken requires a previously issued token on every non-GET request.
// An unexpected client version is only logged.
func SecurityToken(tokens *TokenRegistry, clientVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !tokens.Valid(r.Header.Get(HeaderSecurityToken)) {
				writeError(w, http.StatusForbidden, "security token missing or expired")
				return
			}
			if v := r.Header.Get(HeaderClientVersion); v != clientVersion {
				logger.Warn("outdated client version", "client_version", v, "expected", clientVersion)
			}
			next.ServeHTTP(w, r)
		})
	}
}
