package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/schooldex/internal/config"
	"github.com/kailas-cloud/schooldex/internal/db/sqldb"
	logpkg "github.com/kailas-cloud/schooldex/internal/logger"
)

// loadConfig reads --config when given, otherwise config/$ENV.yaml.
func loadConfig() (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openStore connects to the entity store and applies the schema when migrate is set.
func openStore(ctx context.Context, cfg config.DatabaseConfig, migrate bool) (*sqldb.DB, error) {
	d, err := sqldb.Open(ctx, sqldb.Config{
		Dialect:         sqldb.Dialect(cfg.Driver),
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if migrate {
		if err := d.Migrate(ctx); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
	}
	return d, nil
}
