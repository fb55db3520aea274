package cli

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/cache"
	"github.com/ppiankov/assignparse/internal/config"
	"github.com/ppiankov/assignparse/internal/logging"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/pipeline"
	"github.com/ppiankov/assignparse/internal/strategy"
	"github.com/ppiankov/assignparse/internal/worker"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// configErr holds a read failure of an explicit --config file.
var configErr error

// app wires configuration into the parse pipeline
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	registry *strategy.Registry
	pipeline *pipeline.Pipeline
}

func loadConfig() (*model.Config, error) {
	if configErr != nil {
		return nil, model.ConfigError("cli.config", "read config file", configErr)
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	switch {
	case logLevel != "":
		cfg.Logging.Level = logLevel
	case verbose:
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	registry, err := strategy.Build(cfg, strategy.Deps{
		Logger:  logger,
		Limiter: worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Retry:   strategy.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}

	records := cache.NewRecordCache(cache.New(cfg.Cache), cfg.Cache.TTL, logger)
	p, err := pipeline.New(cfg, strategy.NewRunner(registry, logger), records, logger)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	return &app{cfg: cfg, logger: logger, registry: registry, pipeline: p}, nil
}

func (a *app) close() {
	_ = logging.Sync(a.logger)
}
