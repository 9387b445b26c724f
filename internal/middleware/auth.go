package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
)

const bearerPrefix = "Bearer "

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// IdentityResolver maps a token subject to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, subject string) (*model.Identity, error)
}

// RevocationChecker reports denylisted token IDs.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig holds configuration for the authentication middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Tokens   TokenValidator
	Resolver IdentityResolver
	// Revocations is optional. When nil, tokens are valid until they expire.
	Revocations RevocationChecker
	Metrics     metrics.Recorder
}

// Authenticate returns a middleware that attaches the caller's identity to the
// request context when a valid bearer token is presented. It never rejects a
// request for missing or bad credentials: the request continues anonymously
// and RequireAuth decides whether the route needs an identity.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claims, err := cfg.Tokens.Validate(token)
			if err != nil {
				recorder.IncTokenValidation(metrics.TokenInvalid)
				cfg.Logger.Debug("bearer token rejected",
					slog.String("reason", "invalid_token"),
					slog.String("subject", auth.ExtractSubject(token)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				noteAuth(ctx, authRejected, "")
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsTokenRevoked(ctx, claims.ID)
				if err != nil {
					// Fail closed: an unverifiable token is treated as absent.
					cfg.Logger.Error("revocation check failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(ctx)),
					)
					noteAuth(ctx, authRejected, "")
					next.ServeHTTP(w, r)
					return
				}
				if revoked {
					recorder.IncTokenValidation(metrics.TokenRevoked)
					cfg.Logger.Debug("bearer token rejected",
						slog.String("reason", "revoked"),
						slog.String("subject", claims.Subject),
						slog.String("request_id", GetRequestID(ctx)),
					)
					noteAuth(ctx, authRejected, "")
					next.ServeHTTP(w, r)
					return
				}
			}

			identity, err := cfg.Resolver.Resolve(ctx, claims.Subject)
			if err != nil {
				if errors.Is(err, auth.ErrIdentityNotFound) {
					recorder.IncTokenValidation(metrics.TokenUnknownSubject)
					cfg.Logger.Warn("bearer token rejected",
						slog.String("reason", "unknown_subject"),
						slog.String("subject", claims.Subject),
						slog.String("request_id", GetRequestID(ctx)),
					)
					noteAuth(ctx, authRejected, "")
					next.ServeHTTP(w, r)
					return
				}
				cfg.Logger.Error("identity lookup failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}

			recorder.IncTokenValidation(metrics.TokenValid)
			noteAuth(ctx, authBearer, identity.UserID)
			ctx = auth.ContextWithIdentity(ctx, identity)
			ctx = auth.ContextWithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that reach it without an identity.
// Mount it on route groups after Authenticate has run.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.IdentityFromContext(r.Context()) == nil {
				writeAuthError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched exactly as "Bearer ".
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}
