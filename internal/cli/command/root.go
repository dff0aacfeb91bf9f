// Package command defines the singrctl operator commands.
package command

import (
	"context"
	"fmt"

	"singr-service/internal/db"
	"singr-service/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Build information, set via ldflags.
var Version = "dev"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "singrctl",
		Usage:   "Singr backend operator tool",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			KeysCommand(),
			MigrateCommand(),
			UserCommand(),
			PermissionsCommand(),
			SessionsCommand(),
		},
	}
}

func databaseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "database-url",
		Usage:    "PostgreSQL connection URL",
		EnvVars:  []string{"DATABASE_URL"},
		Required: true,
	}
}

func redisFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "redis-url",
		Usage:    "Redis connection URL",
		EnvVars:  []string{"REDIS_URL"},
		Required: true,
	}
}

// newLogger builds a console logger for command output.
func newLogger(c *cli.Context) (*zap.Logger, error) {
	return logger.New(c.String("log-level"), "development")
}

func connectPostgres(c *cli.Context, log *zap.Logger) (*db.Postgres, error) {
	pg, err := db.ConnectPostgres(c.Context, db.PostgresConfig{
		URL:      c.String("database-url"),
		MaxConns: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Debug("postgres connected")
	return pg, nil
}

func connectRedis(ctx context.Context, c *cli.Context) (*redis.Client, error) {
	client, err := db.NewRedisClient(ctx, db.RedisConfig{URL: c.String("redis-url"), PoolSize: 2})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
