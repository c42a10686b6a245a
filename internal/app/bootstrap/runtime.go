// Package bootstrap assembles the runtime dependencies shared by the API
// entrypoint. Builders degrade to nil when a backend is not configured so
// the server can run with in-memory stores during local development.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/hearthlabs/hearth-assistant/internal/compliance"
	appconfig "github.com/hearthlabs/hearth-assistant/internal/config"
	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPolicyStore returns the Redis-backed policy store when Redis is
// available, otherwise an in-memory store.
func BuildPolicyStore(redisClient *redis.Client, defaultLevel policy.Level, logger *logging.Logger) policy.Store {
	if redisClient == nil {
		if logger != nil {
			logger.Warn("redis unavailable, privacy policies will not survive restarts")
		}
		return policy.NewMemoryStore(defaultLevel)
	}
	return policy.NewRedisStore(redisClient, defaultLevel)
}

// BuildInteractionStore returns the Redis-backed interaction store when
// Redis is available, otherwise an in-memory store.
func BuildInteractionStore(redisClient *redis.Client, logger *logging.Logger) interaction.Store {
	if redisClient == nil {
		if logger != nil {
			logger.Warn("redis unavailable, interactions will not survive restarts")
		}
		return interaction.NewMemoryStore()
	}
	return interaction.NewRedisStore(redisClient)
}

// BuildAuditService opens the audit database and returns the service, or
// nil when no database is configured or reachable. The caller owns the
// returned *sql.DB and must close it.
func BuildAuditService(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*compliance.AuditService, *sql.DB) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Warn("audit database unavailable", "error", err)
		return nil, nil
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Warn("audit database unreachable", "error", err)
		_ = db.Close()
		return nil, nil
	}
	return compliance.NewAuditService(db), db
}

// BuildArchiver connects the archive pool and returns the archiver, or nil
// when no database is configured. The caller owns the returned pool.
func BuildArchiver(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*interaction.Archiver, *pgxpool.Pool) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("archive database unavailable", "error", err)
		return nil, nil
	}
	return interaction.NewArchiver(pool, logger), pool
}
