package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/parcelworks/landscout/config"
	"github.com/parcelworks/landscout/internal/cache"
	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/data"
	"github.com/parcelworks/landscout/internal/observability/notify"
	"github.com/parcelworks/landscout/internal/observability/notify/pagerduty"
	"github.com/parcelworks/landscout/internal/observability/notify/slack"
	"github.com/parcelworks/landscout/internal/observability/statsd"
)

// BuildTaskStore selects and initializes the task store for the configured
// driver. Postgres and SQLite stores create their schema on first use.
func BuildTaskStore(ctx context.Context, cfg config.DBConfig, db *sql.DB, logger *slog.Logger) (core.TaskStore, error) {
	storeCfg := data.StoreConfig{Logger: logger}

	switch cfg.Driver {
	case config.DriverPostgres:
		store := data.NewPGTaskStore(db, storeCfg)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return store, nil

	case config.DriverSQLite:
		store := data.NewSQLiteTaskStore(db, storeCfg)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure sqlite schema: %w", err)
		}
		return store, nil

	case config.DriverMemory:
		return data.NewMemTaskStore(storeCfg), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// BuildCache returns the shared cache repository: Redis when enabled, the
// in-process bounded cache otherwise.
func BuildCache(cfg *config.AppConfig, redisClient *redis.Client, logger *slog.Logger) core.CacheRepository {
	if cfg.Redis.Enabled && redisClient != nil {
		if logger != nil {
			logger.Info("using redis cache", "addr", cfg.Redis.Addr)
		}
		return data.NewRedisCacheRepo(redisClient, cfg.Cache.DefaultTTL)
	}
	return cache.NewBounded(cache.Config{
		Capacity:   cfg.Cache.Capacity,
		DefaultTTL: cfg.Cache.DefaultTTL,
	})
}

// BuildMetricsSink initializes the statsd client when metrics are enabled.
// A nil return means metrics are off; services treat that as a no-op.
func BuildMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "landscout",
		Logger:  logger,
	})
	if err != nil {
		if logger != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		}
		return nil
	}
	return client
}

// BuildNotifier assembles the task failure fan-out from the configured sinks.
func BuildNotifier(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) *notify.Fanout {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return notify.NewFanout(notify.FanoutOptions{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]notify.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:    cfg.Slack.WebhookURL,
			Channel:       cfg.Slack.Channel,
			Username:      cfg.Slack.Username,
			Timeout:       cfg.Timeout,
			RetryLimit:    cfg.RetryLimit,
			TaskURLPrefix: cfg.Slack.TaskURLPrefix,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, notify.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, notify.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return notify.NewFanout(notify.FanoutOptions{
		Logger: baseLogger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
}
