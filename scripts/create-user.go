package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/repository"
	"github.com/optiwealth/optiwealth/internal/repository/sqlite"
	"github.com/optiwealth/optiwealth/internal/service"
)

type output struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func main() {
	var (
		driver      = flag.String("driver", envOr("DATABASE_DRIVER", "postgres"), "Database driver: postgres or sqlite")
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "Database connection string or SQLite path")
		username    = flag.String("username", "", "Username (3-50 characters)")
		email       = flag.String("email", "", "Login email")
		issueToken  = flag.Bool("token", false, "Also print an access token (requires JWT_SECRET)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" || *username == "" {
		fmt.Fprintln(os.Stderr, "-username and -email are required")
		os.Exit(1)
	}

	password, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, *driver, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer store.Close()

	var tokens *auth.TokenService
	if *issueToken {
		tokens, err = auth.NewTokenService(auth.TokenConfig{
			Secret: []byte(os.Getenv("JWT_SECRET")),
			TTL:    parseTTL(os.Getenv("TOKEN_TTL")),
			Issuer: envOr("JWT_ISSUER", "optiwealth"),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "configure tokens:", err)
			os.Exit(1)
		}
	}

	svc := service.NewAuthService(service.AuthConfig{Users: store, Tokens: tokens})
	user, err := svc.Register(ctx, service.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: password,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create user:", err)
		os.Exit(1)
	}

	out := output{UserID: user.ID, Username: user.Username, Email: user.Email}
	if tokens != nil {
		token, err := tokens.Issue(user.Email, time.Now())
		if err != nil {
			fmt.Fprintln(os.Stderr, "issue token:", err)
			os.Exit(1)
		}
		out.Token = token.Value
		out.ExpiresAt = &token.ExpiresAt
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.UserID)
		if out.Token != "" {
			fmt.Println(out.Token)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// readPassword takes CREATE_USER_PASSWORD, or the first line of stdin.
// Passwords are never accepted as flags so they stay out of shell history.
func readPassword() (string, error) {
	if pw := os.Getenv("CREATE_USER_PASSWORD"); pw != "" {
		return pw, nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func openStore(ctx context.Context, driver, dsn string) (service.Store, error) {
	switch driver {
	case "sqlite":
		store, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		repo, err := repository.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func parseTTL(raw string) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
