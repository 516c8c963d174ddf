package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parcelworks/landscout/config"
	"github.com/parcelworks/landscout/internal/adapters/censusdata"
	"github.com/parcelworks/landscout/internal/adapters/propertyapi"
	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
	"github.com/parcelworks/landscout/internal/observability/notify"
	"github.com/parcelworks/landscout/internal/observability/statsd"
	"github.com/parcelworks/landscout/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Engine       *service.EngineService
	Reaper       *service.ReaperService
	Resolver     *service.ResolverService
	Demographics *service.DemographicsService
	Credentials  *service.ConfigCredentialSource
	Store        core.TaskStore
	Cache        core.CacheRepository
	Metrics      *statsd.Client
	Notifier     *notify.Fanout
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient *redis.Client
	Logger      *slog.Logger
}

// NewServices wires stores, vendor clients and business services.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	store, err := BuildTaskStore(ctx, cfg.Database, deps.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("build task store: %w", err)
	}

	cacheRepo := BuildCache(cfg, deps.RedisClient, logger)
	notifier := BuildNotifier(cfg.Observability.Notifications, logger)

	metricsClient := BuildMetricsSink(cfg.Observability.Metrics, logger)
	var metricsSink statsd.Sink
	if metricsClient != nil {
		metricsSink = metricsClient
	}

	credentials := service.NewConfigCredentialSource(cfg.Vendors)

	propertyClient, err := propertyapi.NewClient(propertyapi.ClientOptions{
		BaseURL:        cfg.Vendors.PropertyBaseURL,
		Credentials:    credentials,
		Cache:          cacheRepo,
		CacheTTL:       cfg.Cache.ReverseGeocodeTTL,
		RequestTimeout: cfg.Vendors.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build property vendor client: %w", err)
	}

	censusClient, err := censusdata.NewClient(censusdata.ClientOptions{
		BaseURL:        cfg.Vendors.CensusBaseURL,
		RequestTimeout: cfg.Vendors.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build census client: %w", err)
	}

	resolver, err := service.NewResolverService(service.ResolverServiceOptions{
		Geocoder:        propertyClient,
		Enricher:        propertyClient,
		Credentials:     credentials,
		MaxRadiusMeters: cfg.Resolver.MaxRadiusMeters,
		Logger:          logger,
		Metrics:         metricsSink,
	})
	if err != nil {
		return nil, fmt.Errorf("build resolver service: %w", err)
	}

	demographics, err := service.NewDemographicsService(service.DemographicsServiceOptions{
		Client:   censusClient,
		Cache:    cacheRepo,
		CacheTTL: cfg.Cache.TractTTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build demographics service: %w", err)
	}

	workflows, err := buildWorkflows(resolver, demographics, cfg.Engine, logger)
	if err != nil {
		return nil, err
	}

	engine, err := service.NewEngineService(service.EngineServiceOptions{
		Store:         store,
		Workflows:     workflows,
		MaxConcurrent: cfg.Engine.MaxConcurrent,
		PollInterval:  cfg.Engine.PollInterval,
		Logger:        logger,
		Metrics:       metricsSink,
		Notifier:      notifier,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine service: %w", err)
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Store:   store,
		Config:  cfg.Reaper,
		Logger:  logger,
		Metrics: metricsSink,
	})
	if err != nil {
		return nil, fmt.Errorf("build reaper service: %w", err)
	}

	return &ServiceContainer{
		Engine:       engine,
		Reaper:       reaper,
		Resolver:     resolver,
		Demographics: demographics,
		Credentials:  credentials,
		Store:        store,
		Cache:        cacheRepo,
		Metrics:      metricsClient,
		Notifier:     notifier,
	}, nil
}

// buildWorkflows registers one runner per task type.
func buildWorkflows(
	resolver *service.ResolverService,
	demographics *service.DemographicsService,
	engineCfg config.EngineConfig,
	logger *slog.Logger,
) (map[model.TaskType]service.Workflow, error) {
	batch, err := service.NewBatchEnrichmentWorkflow(service.BatchEnrichmentWorkflowOptions{
		Resolver:  resolver,
		ItemDelay: engineCfg.BatchItemDelay,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build batch enrichment workflow: %w", err)
	}

	demographicLoad, err := service.NewDemographicLoadWorkflow(demographics, logger)
	if err != nil {
		return nil, fmt.Errorf("build demographic load workflow: %w", err)
	}

	combined, err := service.NewCombinedAnalysisWorkflow(demographics, logger)
	if err != nil {
		return nil, fmt.Errorf("build combined analysis workflow: %w", err)
	}

	return map[model.TaskType]service.Workflow{
		model.TaskTypeRegionScan:       service.NewRegionScanWorkflow(logger),
		model.TaskTypeBatchEnrichment:  batch,
		model.TaskTypeDemographicLoad:  demographicLoad,
		model.TaskTypeCombinedAnalysis: combined,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, len(enabled)+1)

	engineRunning := false
	if enabled[config.ServiceModeEngine] {
		if err := cfg.Services.Engine.Start(serviceCtx); err != nil {
			return fmt.Errorf("start engine: %w", err)
		}
		engineRunning = true
		logger.Info("background service started", "service", "engine")
	}

	var reaperDone <-chan struct{}
	if enabled[config.ServiceModeReaper] {
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := cfg.Services.Reaper.Run(serviceCtx); err != nil {
				select {
				case errCh <- fmt.Errorf("reaper failed: %w", err):
				default:
					logger.Warn("dropping background service error", "service", "reaper", "error", err)
				}
			}
		}()
		reaperDone = done
		logger.Info("background service started", "service", "reaper")
	}

	runErr := waitForShutdown(logger, errCh)
	cancel()

	if engineRunning {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		if err := cfg.Services.Engine.Stop(stopCtx); err != nil {
			logger.Warn("engine did not stop cleanly", "error", err)
		}
		stopCancel()
	}
	waitForService(reaperDone, "reaper", logger)

	if cfg.Services.Metrics != nil {
		if err := cfg.Services.Metrics.Close(); err != nil {
			logger.Warn("closing metrics sink failed", "error", err)
		}
	}

	return runErr
}

// waitForShutdown blocks until a signal arrives or a background service errors.
func waitForShutdown(logger *slog.Logger, errCh <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		logger.Info("shutting down services...")
		return nil
	case err := <-errCh:
		logger.Error("service error", "error", err)
		return err
	}
}

// waitForService waits for a background service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
