// Package main is the entrypoint for the OptiWealth API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/optiwealth/optiwealth/internal/audit"
	"github.com/optiwealth/optiwealth/internal/auth"
	"github.com/optiwealth/optiwealth/internal/cache"
	"github.com/optiwealth/optiwealth/internal/config"
	"github.com/optiwealth/optiwealth/internal/handler"
	"github.com/optiwealth/optiwealth/internal/metrics"
	"github.com/optiwealth/optiwealth/internal/repository"
	"github.com/optiwealth/optiwealth/internal/repository/sqlite"
	"github.com/optiwealth/optiwealth/internal/server"
	"github.com/optiwealth/optiwealth/internal/service"
	"github.com/optiwealth/optiwealth/internal/symbols"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	set, err := loadSymbols(cfg, logger)
	if err != nil {
		logger.Error("failed to load symbols",
			slog.String("error", err.Error()),
			slog.String("symbols_file", cfg.SymbolsFile),
		)
		os.Exit(1)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("driver", cfg.DatabaseDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database", slog.String("driver", cfg.DatabaseDriver))

	var (
		cacheClient *cache.Cache
		publisher   audit.Publisher = audit.NoopPublisher{}
	)
	recorder := metrics.NewInMemory()

	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			store.Close()
			os.Exit(1)
		}
		publisher = audit.NewStreamPublisher(cacheClient.Client(), logger, recorder)
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set: login rate limiting, token revocation and audit stream disabled")
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
		Issuer: cfg.JWTIssuer,
	})
	if err != nil {
		logger.Error("failed to configure tokens", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := handler.NewRouter(handler.Deps{
		Logger:  logger,
		Store:   store,
		Tokens:  tokens,
		Symbols: set,
		Cache:   cacheClient,
		Audit:   publisher,
		Metrics: recorder,
		Options: handler.Options{
			IsDevelopment:           cfg.IsDevelopment(),
			MaxRequestBodySize:      cfg.MaxRequestBodySize,
			CORSAllowedOrigins:      cfg.GetCORSAllowedOrigins(),
			HideForeignResources:    cfg.HideForeignResources,
			RateLimitLoginEnabled:   cfg.RateLimitLoginEnabled,
			RateLimitLoginPerMinute: cfg.RateLimitLoginPerMinute,
		},
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: Redis closes before the store.
	srv.OnShutdown("database", func(context.Context) error {
		store.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.Int("symbols", set.Len()),
		slog.Duration("token_ttl", tokens.TTL()),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStore connects to the configured database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// loadSymbols loads the symbol set. With SYMBOLS_STRICT=false a load
// failure degrades to an empty set and /readyz reports it.
func loadSymbols(cfg *config.Config, logger *slog.Logger) (*symbols.Set, error) {
	var (
		set *symbols.Set
		err error
	)
	if cfg.SymbolsFile != "" {
		set, err = symbols.LoadFile(cfg.SymbolsFile)
	} else {
		set, err = symbols.LoadDefault()
	}
	if err == nil {
		return set, nil
	}
	if cfg.SymbolsStrict {
		return nil, err
	}

	logger.Warn("symbol set unavailable, every holding will be rejected",
		slog.String("error", err.Error()),
		slog.Bool("empty_set", errors.Is(err, symbols.ErrEmptySet)),
	)
	return symbols.Empty(), nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
