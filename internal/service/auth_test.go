package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/oklog/ulid/v2"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/service"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, service.RegisterInput{
		Username: "  alice ",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want trimmed alice", user.Username)
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Errorf("PasswordHash = %q, want argon2id PHC string", user.PasswordHash)
	}
	if user.PasswordHash == "correct horse battery" {
		t.Error("password stored in plaintext")
	}

	stored, err := env.store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if stored.ID != user.ID {
		t.Errorf("stored ID = %s, want %s", stored.ID, user.ID)
	}

	_, err = env.auth.Register(ctx, service.RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "another password",
	})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("duplicate Register error = %v, want ErrEmailTaken", err)
	}

	if got := env.recorder.Snapshot().Registrations; got != 1 {
		t.Errorf("Registrations = %d, want 1", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input service.RegisterInput
		want  error
	}{
		{"short username", service.RegisterInput{Username: "al", Email: "a@example.com", Password: "long enough"}, service.ErrInvalidUsername},
		{"missing email", service.RegisterInput{Username: "alice", Email: "", Password: "long enough"}, service.ErrInvalidEmail},
		{"bad email", service.RegisterInput{Username: "alice", Email: "not-an-email", Password: "long enough"}, service.ErrInvalidEmail},
		{"display name email", service.RegisterInput{Username: "alice", Email: "Alice <a@example.com>", Password: "long enough"}, service.ErrInvalidEmail},
		{"short password", service.RegisterInput{Username: "alice", Email: "a@example.com", Password: "short"}, service.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, service.ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.register(t, "alice", "alice@example.com")
	ctx := context.Background()

	result, err := env.auth.Login(ctx, service.LoginInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.User.ID != user.ID {
		t.Errorf("User.ID = %s, want %s", result.User.ID, user.ID)
	}

	claims, err := env.tokens.Validate(result.Token.Value)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("sub = %q, want alice@example.com", claims.Subject)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrong password"},
		{"unknown email", "nobody@example.com", "correct horse battery"},
		{"email differs in case", "Alice@example.com", "correct horse battery"},
		{"empty password", "alice@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.auth.Login(context.Background(), service.LoginInput{Email: tt.email, Password: tt.password})
			if !errors.Is(err, service.ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
			if result != nil {
				t.Error("result must be nil on failure")
			}
		})
	}

	if got := env.recorder.Snapshot().LoginsFailed; got != uint64(len(tests)) {
		t.Errorf("LoginsFailed = %d, want %d", got, len(tests))
	}
}

func TestLogin_UpgradesLegacyHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     "legacy",
		Email:        "legacy@example.com",
		PasswordHash: string(legacy),
	}
	if err := env.store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := env.auth.Login(ctx, service.LoginInput{Email: user.Email, Password: "legacy password"}); err != nil {
		t.Fatalf("Login with bcrypt hash: %v", err)
	}

	stored, err := env.store.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Errorf("hash not upgraded: %q", stored.PasswordHash)
	}

	if _, err := env.auth.Login(ctx, service.LoginInput{Email: user.Email, Password: "legacy password"}); err != nil {
		t.Errorf("Login after upgrade: %v", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.register(t, "alice", "alice@example.com")

	result, err := env.auth.Login(context.Background(), service.LoginInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := env.tokens.Validate(result.Token.Value)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	revoked, err := env.auth.Logout(ctx, claims)
	if err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !revoked {
		t.Error("revoked = false, want true with a revoker configured")
	}
	if len(env.revoker.calls) != 1 || env.revoker.calls[0].id != result.Token.ID {
		t.Fatalf("revoker calls = %+v, want one for %s", env.revoker.calls, result.Token.ID)
	}
	if !env.revoker.calls[0].expiresAt.Equal(result.Token.ExpiresAt) {
		t.Errorf("revoked until %v, want %v", env.revoker.calls[0].expiresAt, result.Token.ExpiresAt)
	}

	if _, err := env.auth.Logout(context.Background(), claims); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("anonymous Logout error = %v, want ErrUnauthenticated", err)
	}
}

func TestLogout_WithoutRevoker(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.register(t, "alice", "alice@example.com")

	stateless := service.NewAuthService(service.AuthConfig{
		Users:  env.store,
		Tokens: env.tokens,
		Hasher: auth.NewPasswordHasher(fastParams),
	})
	result, err := stateless.Login(context.Background(), service.LoginInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, _ := env.tokens.Validate(result.Token.Value)

	revoked, err := stateless.Logout(ctx, claims)
	if err != nil || revoked {
		t.Errorf("Logout = %v, %v; want false, nil", revoked, err)
	}
}
