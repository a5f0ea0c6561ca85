// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/application/kitchen"
	"github.com/alchemorsel/kitchen/internal/application/resolver"
	domainkitchen "github.com/alchemorsel/kitchen/internal/domain/kitchen"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/ops"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	gormrepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/postgres"
	redisrepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/seed"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/alchemorsel/kitchen/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the config file the application loads and watches. Empty
// means search the default locations.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,
	EmbeddingModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
		})
	},
)

// MonitoringModule provides the metrics registry, business metrics,
// tracing and the health registry
var MonitoringModule = fx.Provide(
	func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	},
	func(reg *prometheus.Registry, cfg *config.Config) (outbound.MetricsRecorder, error) {
		if !cfg.Monitoring.EnableMetrics {
			return outbound.NopMetrics{}, nil
		}
		return monitoring.NewKitchenMetrics(reg)
	},
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), cfg, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
	func(reg *prometheus.Registry, cfg *config.Config, log *zap.Logger) (*healthcheck.HealthCheck, error) {
		hc := healthcheck.New(cfg.App.Version, log)
		if cfg.Monitoring.HealthCacheTTL > 0 {
			hc.SetCacheTTL(cfg.Monitoring.HealthCacheTTL)
		}
		if cfg.Monitoring.EnableMetrics {
			metrics, err := healthcheck.NewHealthMetrics(reg, "kitchen")
			if err != nil {
				return nil, fmt.Errorf("failed to register health metrics: %w", err)
			}
			hc.SetMetrics(metrics)
		}
		return hc, nil
	},
)

// Database is whichever store the configured driver opened. Gorm and SQL
// are nil for the memory driver; Pool is only set for postgres.
type Database struct {
	Driver string
	Gorm   *gorm.DB
	SQL    *sql.DB
	Pool   *pgxpool.Pool
}

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// NewDatabase opens the configured driver and closes it on stop
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, reg *prometheus.Registry, log *zap.Logger) (*Database, error) {
	db := &Database{Driver: cfg.Database.Driver}

	switch cfg.Database.Driver {
	case "memory":
		log.Info("Using in-memory kitchen store")
		return db, nil

	case "sqlite":
		gormDB, err := sqlite.SetupDatabase(cfg.Database.Path,
			gormrepo.NewLogger(log, cfg.Database.LogLevel, 200*time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		if err := installQueryMonitor(gormDB, cfg, reg, log); err != nil {
			return nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		db.Gorm, db.SQL = gormDB, sqlDB

		log.Info("Connected to SQLite database",
			zap.String("path", cfg.Database.Path),
			zap.Bool("in_memory", cfg.Database.Path == "" || cfg.Database.Path == ":memory:"),
		)

	case "postgres":
		var monitor *gormrepo.QueryMonitor
		if cfg.Monitoring.EnableMetrics {
			m, err := gormrepo.NewQueryMonitor(reg, 200*time.Millisecond, log)
			if err != nil {
				return nil, fmt.Errorf("failed to create query monitor: %w", err)
			}
			monitor = m
		}
		cm, err := postgres.NewConnectionManager(cfg, monitor, log)
		if err != nil {
			return nil, err
		}
		pool, err := postgres.NewPool(context.Background(), cfg, log)
		if err != nil {
			_ = cm.Close()
			return nil, err
		}
		db.Gorm, db.SQL, db.Pool = cm.DB(), cm.SQLDB(), pool
		if cfg.Monitoring.EnableMetrics {
			if err := reg.Register(postgres.NewPoolCollector(pool)); err != nil {
				return nil, fmt.Errorf("failed to register pool metrics: %w", err)
			}
		}

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Monitoring.EnableMetrics {
		if err := reg.Register(collectors.NewDBStatsCollector(db.SQL, cfg.Database.Driver)); err != nil {
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if db.Pool != nil {
				db.Pool.Close()
			}
			if db.SQL != nil {
				if err := db.SQL.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}
			return nil
		},
	})
	return db, nil
}

func installQueryMonitor(db *gorm.DB, cfg *config.Config, reg *prometheus.Registry, log *zap.Logger) error {
	if !cfg.Monitoring.EnableMetrics {
		return nil
	}
	monitor, err := gormrepo.NewQueryMonitor(reg, 200*time.Millisecond, log)
	if err != nil {
		return fmt.Errorf("failed to create query monitor: %w", err)
	}
	if err := monitor.Install(db); err != nil {
		log.Warn("Failed to install query monitoring", zap.Error(err))
	}
	return nil
}

// CacheResult carries the embedding cache and, for redis, its client so the
// health registry can probe it. Cache is nil when caching is disabled.
type CacheResult struct {
	fx.Out

	Cache  outbound.CacheRepository
	Client redis.UniversalClient
}

// CacheModule provides caching
var CacheModule = fx.Provide(
	NewCache,
)

// NewCache builds the configured cache backend
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (CacheResult, error) {
	switch cfg.Cache.Provider {
	case "none":
		log.Info("Embedding cache disabled")
		return CacheResult{}, nil

	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := redisrepo.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return CacheResult{}, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		return CacheResult{
			Cache:  redisrepo.NewCacheRepository(client, cfg.Cache.KeyPrefix, log),
			Client: client,
		}, nil

	default:
		log.Info("Using in-memory embedding cache", zap.Duration("ttl", cfg.Cache.TTL))
		return CacheResult{
			Cache: memory.NewCacheRepository(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
		}, nil
	}
}

// EmbeddingModule provides the embedding provider stack
var EmbeddingModule = fx.Provide(
	ai.NewProvider,
	func(p *ai.Provider) outbound.Embedder {
		return p.Embedder
	},
)

// Repositories are the outbound persistence ports for the selected driver
type Repositories struct {
	fx.Out

	Ingredients outbound.IngredientStore
	Kitchen     outbound.KitchenRepository
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	NewRepositories,
)

// NewRepositories picks the adapters matching the database driver. On
// postgres the catalog searches through pgx so ranking runs in SQL.
func NewRepositories(db *Database, log *zap.Logger) Repositories {
	switch db.Driver {
	case "memory":
		return Repositories{
			Ingredients: memory.NewIngredientStore(),
			Kitchen:     memory.NewKitchenRepository(),
		}
	case "postgres":
		return Repositories{
			Ingredients: postgres.NewIngredientStore(db.Pool, log),
			Kitchen:     gormrepo.NewKitchenRepository(db.Gorm),
		}
	default:
		return Repositories{
			Ingredients: gormrepo.NewIngredientRepository(db.Gorm),
			Kitchen:     gormrepo.NewKitchenRepository(db.Gorm),
		}
	}
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewResolverService,
	func(s *resolver.Service) inbound.IngredientResolver { return s },
	NewKitchenService,
	func(s *kitchen.Service) inbound.KitchenService { return s },
)

// ResolverOptions maps the resolver config section
func ResolverOptions(cfg config.ResolverConfig) resolver.Options {
	return resolver.Options{
		FuzzyThreshold:    cfg.FuzzyThreshold,
		HighConfidence:    cfg.HighConfidence,
		SemanticCeiling:   cfg.SemanticCeiling,
		SemanticThreshold: cfg.SemanticThreshold,
		Limit:             cfg.Limit,
	}
}

// NewResolverService creates the ingredient resolver
func NewResolverService(
	store outbound.IngredientStore,
	embedder outbound.Embedder,
	cfg *config.Config,
	metrics outbound.MetricsRecorder,
	log *zap.Logger,
) (*resolver.Service, error) {
	return resolver.NewService(store, embedder, ResolverOptions(cfg.Resolver), metrics, log)
}

// NewKitchenService creates the feasibility and cooking service
func NewKitchenService(
	repo outbound.KitchenRepository,
	cfg *config.Config,
	metrics outbound.MetricsRecorder,
	log *zap.Logger,
) (*kitchen.Service, error) {
	return kitchen.NewService(repo, kitchen.Options{
		TieBreak:        domainkitchen.TieBreak(cfg.Kitchen.SubstituteTieBreak),
		QuantityEpsilon: cfg.Kitchen.QuantityEpsilon,
	}, metrics, log)
}

// HTTPModule provides the ops server
var HTTPModule = fx.Provide(
	func(cfg *config.Config, health *healthcheck.HealthCheck, reg *prometheus.Registry, log *zap.Logger) *ops.Server {
		var gatherer prometheus.Gatherer
		if cfg.Monitoring.EnableMetrics {
			gatherer = reg
		}
		return ops.NewServer(cfg, health, gatherer, log)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// HealthDeps are the probe targets; absent ones are skipped
type HealthDeps struct {
	fx.In

	Health   *healthcheck.HealthCheck
	Database *Database
	Provider *ai.Provider
	Redis    redis.UniversalClient `optional:"true"`
	Logger   *zap.Logger
}

// RegisterHealthChecks wires every dependency into the health registry.
// External dependencies sit behind circuit breakers so a dead service is
// not hammered by probes.
func RegisterHealthChecks(deps HealthDeps) error {
	hc := deps.Health
	breaker := healthcheck.CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}

	if deps.Database.SQL != nil {
		hc.Register("database", healthcheck.NewSQLChecker(deps.Database.SQL))
	}
	if deps.Database.Pool != nil {
		hc.Register("catalog_pool", healthcheck.NewPoolChecker(deps.Database.Pool))

		migrator, err := migrations.New(deps.Database.SQL, deps.Logger)
		if err != nil {
			return fmt.Errorf("failed to create migrator for health: %w", err)
		}
		hc.Register("schema", NewSchemaChecker(migrator))
	}
	if deps.Redis != nil {
		hc.RegisterWithCircuitBreaker("redis", healthcheck.NewRedisChecker(deps.Redis), breaker)
	}
	hc.RegisterWithCircuitBreaker("embedder", deps.Provider.HealthChecker(), breaker)
	return nil
}

// NewSchemaChecker reports degraded while migrations are pending and
// unhealthy on a dirty schema
func NewSchemaChecker(migrator *migrations.Migrator) *healthcheck.CustomChecker {
	return healthcheck.NewCustomChecker("schema", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		status, err := migrator.Status()
		if err != nil {
			return healthcheck.StatusUnhealthy, err.Error(), nil
		}
		switch {
		case status.Dirty:
			return healthcheck.StatusUnhealthy, fmt.Sprintf("schema version %d is dirty", status.Version), status
		case len(status.Pending) > 0:
			return healthcheck.StatusDegraded, fmt.Sprintf("%d migrations pending", len(status.Pending)), status
		default:
			return healthcheck.StatusHealthy, "Schema up to date", status
		}
	})
}

// LifecycleDeps are what start and stop need
type LifecycleDeps struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	ConfigPath ConfigPath
	Logger     *zap.Logger
	Database   *Database
	Store      outbound.IngredientStore
	Kitchen    outbound.KitchenRepository
	Embedder   outbound.Embedder
	Resolver   *resolver.Service
	Health     *healthcheck.HealthCheck
	Tracing    *monitoring.TracingProvider
	Server     *ops.Server
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(deps LifecycleDeps) {
	cfg, log := deps.Config, deps.Logger

	deps.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting kitchen",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.String("embedder", cfg.Embedding.Provider),
			)

			if deps.Database.Driver == "postgres" && cfg.Database.AutoMigrate {
				migrator, err := migrations.New(deps.Database.SQL, log)
				if err != nil {
					return err
				}
				if err := migrator.Up(); err != nil {
					return err
				}
			}

			if cfg.App.SeedCatalog {
				report, err := seed.NewSeeder(deps.Store, deps.Kitchen, deps.Embedder, log).Run(ctx)
				if err != nil {
					return fmt.Errorf("failed to seed catalog: %w", err)
				}
				log.Info("Catalog seeded",
					zap.Int("ingredients_created", report.IngredientsCreated),
					zap.Int("rules_created", report.RulesCreated),
					zap.Int("embedding_failures", report.EmbeddingFailures),
				)
			}

			if path := string(deps.ConfigPath); path != "" {
				err := config.Watch(path, log, func(next *config.Config) {
					if err := deps.Resolver.UpdateDefaults(ResolverOptions(next.Resolver)); err != nil {
						log.Warn("Ignoring invalid resolver thresholds", zap.Error(err))
					}
				})
				if err != nil {
					log.Warn("Config hot reload disabled", zap.Error(err))
				}
			}

			go func() {
				if err := deps.Server.Start(); err != nil {
					log.Error("Ops server failed", zap.Error(err))
					_ = deps.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down kitchen")

			// Fail readiness first so load balancers drain before the
			// listener goes away.
			deps.Health.PrepareShutdown()

			if err := deps.Server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown ops server", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()
			return nil
		},
	})
}
