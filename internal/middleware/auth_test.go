package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type identityMap struct {
	identities map[string]*model.Identity
	err        error
}

func (m identityMap) Resolve(_ context.Context, subject string) (*model.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.identities[subject]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	return id, nil
}

type revocationSet struct {
	revoked map[string]bool
	err     error
}

func (s revocationSet) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	return s.revoked[id], s.err
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Hour,
		Issuer: "optiwealth",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

// identityRecorder records what the downstream handler sees.
func identityRecorder(seen **model.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	alice := &model.Identity{UserID: "u1", Email: "alice@example.com"}
	resolver := identityMap{identities: map[string]*model.Identity{alice.Email: alice}}

	good, err := tokens.Issue(alice.Email, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	ghost, _ := tokens.Issue("ghost@example.com", time.Now())
	expired, _ := tokens.Issue(alice.Email, time.Now().Add(-2*time.Hour))
	otherKey, _ := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("ffffffffffffffffffffffffffffffff"), TTL: time.Hour, Issuer: "optiwealth",
	})
	forged, _ := otherKey.Issue(alice.Email, time.Now())

	tests := []struct {
		name   string
		header string
		want   *model.Identity
	}{
		{"no header", "", nil},
		{"basic scheme", "Basic YWxpY2U6cHc=", nil},
		{"lowercase scheme", "bearer " + good.Value, nil},
		{"bearer without token", "Bearer ", nil},
		{"garbage token", "Bearer not-a-jwt", nil},
		{"expired token", "Bearer " + expired.Value, nil},
		{"wrong signing key", "Bearer " + forged.Value, nil},
		{"unknown subject", "Bearer " + ghost.Value, nil},
		{"valid token", "Bearer " + good.Value, alice},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := metrics.NewInMemory()
			var seen *model.Identity
			handler := Authenticate(AuthConfig{
				Logger:   discardLogger,
				Tokens:   tokens,
				Resolver: resolver,
				Metrics:  rec,
			})(identityRecorder(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Authenticate must not reject; status = %d", w.Code)
			}
			if seen != tt.want {
				t.Errorf("identity = %+v, want %+v", seen, tt.want)
			}
		})
	}
}

func TestAuthenticate_Revoked(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	alice := &model.Identity{UserID: "u1", Email: "alice@example.com"}
	tok, _ := tokens.Issue(alice.Email, time.Now())

	tests := []struct {
		name        string
		revocations RevocationChecker
		want        *model.Identity
	}{
		{"not revoked", revocationSet{revoked: map[string]bool{}}, alice},
		{"revoked", revocationSet{revoked: map[string]bool{tok.ID: true}}, nil},
		{"checker failure fails closed", revocationSet{err: errors.New("redis down")}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen *model.Identity
			handler := Authenticate(AuthConfig{
				Logger:      discardLogger,
				Tokens:      tokens,
				Resolver:    identityMap{identities: map[string]*model.Identity{alice.Email: alice}},
				Revocations: tt.revocations,
			})(identityRecorder(&seen))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tok.Value)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seen != tt.want {
				t.Errorf("identity = %+v, want %+v", seen, tt.want)
			}
		})
	}
}

func TestAuthenticate_ResolverFailure(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	tok, _ := tokens.Issue("alice@example.com", time.Now())

	called := false
	handler := Authenticate(AuthConfig{
		Logger:   discardLogger,
		Tokens:   tokens,
		Resolver: identityMap{err: errors.New("db unavailable")},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if called {
		t.Error("handler must not run after a collaborator failure")
	}
}

func TestAuthenticate_AttachesClaims(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(t)
	alice := &model.Identity{UserID: "u1", Email: "alice@example.com"}
	tok, _ := tokens.Issue(alice.Email, time.Now())

	var claims *auth.Claims
	handler := Authenticate(AuthConfig{
		Logger:   discardLogger,
		Tokens:   tokens,
		Resolver: identityMap{identities: map[string]*model.Identity{alice.Email: alice}},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = auth.ClaimsFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if claims == nil || claims.ID != tok.ID {
		t.Errorf("claims = %+v, want jti %s", claims, tok.ID)
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/portfolios", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}
	if called {
		t.Error("handler body must not run for anonymous requests")
	}
	if want := `{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`; strings.TrimSpace(w.Body.String()) != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/portfolios", nil)
	req = req.WithContext(auth.ContextWithIdentity(req.Context(), &model.Identity{UserID: "u1"}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !called {
		t.Errorf("authenticated request: status = %d, called = %v", w.Code, called)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer   padded  ", "padded", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
