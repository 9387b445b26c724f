package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository/sqlite"
	"github.com/optiwealth/optiwealth/internal/service"
	"github.com/optiwealth/optiwealth/internal/symbols"
)

// fastParams keep argon2 cheap in tests.
var fastParams = auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type revokeCall struct {
	id        string
	expiresAt time.Time
}

type fakeRevoker struct {
	calls []revokeCall
}

func (f *fakeRevoker) RevokeToken(_ context.Context, id string, expiresAt time.Time) error {
	f.calls = append(f.calls, revokeCall{id: id, expiresAt: expiresAt})
	return nil
}

type testEnv struct {
	store      *sqlite.Store
	tokens     *auth.TokenService
	recorder   *metrics.InMemoryRecorder
	revoker    *fakeRevoker
	auth       *service.AuthService
	portfolios *service.PortfolioService
	holdings   *service.HoldingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(store.Close)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte("service-test-secret-0123456789abcdef"),
		TTL:    time.Hour,
		Issuer: "optiwealth",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	recorder := metrics.NewInMemory()
	revoker := &fakeRevoker{}
	authz := auth.NewAuthorizer(store)
	portfolios := service.NewPortfolioService(store, authz, nil, recorder)

	return &testEnv{
		store:    store,
		tokens:   tokens,
		recorder: recorder,
		revoker:  revoker,
		auth: service.NewAuthService(service.AuthConfig{
			Users:   store,
			Tokens:  tokens,
			Hasher:  auth.NewPasswordHasher(fastParams),
			Revoker: revoker,
			Metrics: recorder,
		}),
		portfolios: portfolios,
		holdings:   service.NewHoldingService(portfolios, symbols.New("AAPL", "MSFT", "RELIANCE.NS")),
	}
}

// register creates a user and returns a context carrying its identity.
func (e *testEnv) register(t *testing.T, username, email string) (*model.User, context.Context) {
	t.Helper()
	user, err := e.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    email,
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return user, auth.ContextWithIdentity(context.Background(), user.Identity())
}
