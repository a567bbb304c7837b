package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/ticketgate/config"
	"github.com/target/ticketgate/internal/core"
	"github.com/target/ticketgate/internal/data"
	"github.com/target/ticketgate/internal/domain/dispatch"
	"github.com/target/ticketgate/internal/observability/notify/pushcut"
	"github.com/target/ticketgate/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Dispatch      *service.DispatchService
	Records       *service.RecordService
	Cache         core.CacheRepository
	Observability ObservabilityContainer
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Configs *data.DispatchConfigRepo
	Records *data.DispatchRecordRepo
	Cache   core.CacheRepository
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, client redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		Configs: data.NewDispatchConfigRepo(db),
		Records: data.NewDispatchRecordRepo(db),
	}
	if client != nil {
		repos.Cache = data.NewRedisCacheRepo(client)
	}
	return repos
}

func newCatalog(cfg config.DispatchConfig) (*dispatch.Catalog, error) {
	values, err := cfg.Values()
	if err != nil {
		return nil, err
	}
	variants := dispatch.DefaultVariants(cfg.DestinationURL)
	if values != nil {
		variants = dispatch.VariantsFor(values, cfg.DestinationURL)
	}
	return dispatch.NewCatalog(variants)
}

// NewServices wires repositories, notifiers and observability into the dispatch services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil || deps.DB == nil {
		return ServiceContainer{}, errors.New("service deps require config and database")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos := buildRepositories(deps.DB, deps.RedisClient)
	obs := buildObservability(logger, cfg.Observability, repos.Cache)

	catalog, err := newCatalog(cfg.Dispatch)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build catalog: %w", err)
	}

	notifier := pushcut.NewClient(pushcut.Config{
		Title:      cfg.Dispatch.NotifyTitle,
		TextPrefix: cfg.Dispatch.NotifyTextPrefix,
		Timeout:    cfg.Dispatch.NotifyTimeout,
	})

	dispatchSvc, err := service.NewDispatchService(service.DispatchServiceOptions{
		Configs:         repos.Configs,
		Notifier:        notifier,
		Catalog:         catalog,
		NotifyTimeout:   cfg.Dispatch.NotifyTimeout,
		Cache:           repos.Cache,
		Metrics:         obs.DispatchMetrics,
		FailureNotifier: obs.FailureNotifier,
		Logger:          logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("dispatch service: %w", err)
	}

	feed, err := dispatch.NewChangeFeed(dispatch.ChangeFeedOptions{Waiter: repos.Configs})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("change feed: %w", err)
	}

	recordSvc, err := service.NewRecordService(service.RecordServiceOptions{
		Records:  repos.Records,
		Configs:  repos.Configs,
		Cache:    repos.Cache,
		StatsTTL: cfg.Cache.StatsTTL,
		Feed:     feed,
		Logger:   logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("record service: %w", err)
	}

	return ServiceContainer{
		Dispatch:      dispatchSvc,
		Records:       recordSvc,
		Cache:         repos.Cache,
		Observability: obs,
	}, nil
}
