package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/optiwealth/optiwealth/internal/audit"
	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/model"
	"github.com/optiwealth/optiwealth/internal/repository"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordLength = 128
	maxEmailLength    = 254
)

// AuthConfig holds dependencies for AuthService.
type AuthConfig struct {
	Users   UserStore
	Tokens  *auth.TokenService
	Hasher  *auth.PasswordHasher
	Revoker TokenRevoker // optional; nil keeps tokens stateless
	Audit   audit.Publisher
	Metrics metrics.Recorder
	Logger  *slog.Logger
	Now     func() time.Time
}

// AuthService handles registration, login and logout.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenService
	hasher  *auth.PasswordHasher
	revoker TokenRevoker
	audit   audit.Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	s := &AuthService{
		users:   cfg.Users,
		tokens:  cfg.Tokens,
		hasher:  cfg.Hasher,
		revoker: cfg.Revoker,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if s.hasher == nil {
		s.hasher = auth.NewPasswordHasher(auth.DefaultArgon2Params)
	}
	if s.audit == nil {
		s.audit = audit.NoopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	ClientIP  string
	RequestID string
}

// Register creates a user with a hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if n := len(input.Password); n < minPasswordLength || n > maxPasswordLength {
		return nil, ErrInvalidPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncRegistration()
	s.audit.PublishAsync(audit.Event{
		Type:      audit.EventRegistered,
		UserID:    user.ID,
		IPHash:    hashOrEmpty(input.ClientIP),
		RequestID: input.RequestID,
	})

	return user, nil
}

// LoginInput defines input for a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	ClientIP  string
	RequestID string
}

// LoginResult is a successful login.
type LoginResult struct {
	User  *model.User
	Token *auth.Token
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveLoginDuration(time.Since(start)) }()

	email := strings.TrimSpace(input.Email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		// Same work as a real verify so response time does not reveal the email.
		s.hasher.Verify(input.Password, s.dummy())
		s.loginFailed(email, input)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.loginFailed(email, input)
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, input.Password)
	}

	token, err := s.tokens.Issue(user.Email, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.LoginSuccess)
	s.audit.PublishAsync(audit.Event{
		Type:      audit.EventLoginSucceeded,
		UserID:    user.ID,
		IPHash:    hashOrEmpty(input.ClientIP),
		RequestID: input.RequestID,
	})

	return &LoginResult{User: user, Token: token}, nil
}

// Logout revokes the token described by claims. It reports false when no
// revocation list is configured, leaving the token valid until expiry.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) (bool, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil || claims == nil {
		return false, auth.ErrUnauthenticated
	}

	s.audit.PublishAsync(audit.Event{
		Type:   audit.EventLogout,
		UserID: identity.UserID,
	})

	if s.revoker == nil || claims.ExpiresAt == nil {
		return false, nil
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return false, fmt.Errorf("failed to revoke token: %w", err)
	}
	return true, nil
}

func (s *AuthService) loginFailed(email string, input LoginInput) {
	s.metrics.IncLogin(metrics.LoginInvalidCredentials)
	s.audit.PublishAsync(audit.Event{
		Type:      audit.EventLoginFailed,
		EmailHash: hashOrEmpty(email),
		IPHash:    hashOrEmpty(input.ClientIP),
		RequestID: input.RequestID,
	})
}

// upgradeHash replaces a legacy or weaker hash. Failure is logged only;
// the old hash still verifies.
func (s *AuthService) upgradeHash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("password hash upgrade failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	user.PasswordHash = hash
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ulid.Make().String())
		if err != nil {
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func hashOrEmpty(value string) string {
	if value == "" {
		return ""
	}
	return auth.QuickHash(value)
}
