package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"cyberguard/internal/bootstrap/config"
	"cyberguard/internal/bootstrap/database"
	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
	openaigw "cyberguard/internal/infrastructure/analysis/openai"
	cacheinfra "cyberguard/internal/infrastructure/cache"
	"cyberguard/internal/infrastructure/intel"
	sqliterepo "cyberguard/internal/infrastructure/persistence/sqlite/repository"
	"cyberguard/internal/ports"
	"cyberguard/internal/usecase/detection"
	"cyberguard/internal/usecase/recovery"
	"cyberguard/internal/usecase/support"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideIncidentRepository),
	fx.Provide(provideHoneypotRepository),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideAnalyzer),
	fx.Provide(provideIntelPublisher),
	fx.Provide(provideDetectionService),
	fx.Provide(support.NewService),
	fx.Provide(provideRecoveryStore),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideIncidentRepository(db *gorm.DB, cfg config.Config) ports.IncidentRepository {
	return sqliterepo.NewIncidentRepository(db, cfg.Retention.MaxIncidents)
}

func provideHoneypotRepository(db *gorm.DB, cfg config.Config) ports.HoneypotRepository {
	return sqliterepo.NewHoneypotRepository(db, cfg.Retention.MaxEvents)
}

func provideAnalyzer(cfg config.Config) (ports.Analyzer, error) {
	return openaigw.NewGateway(cfg.Analysis)
}

// provideIntelPublisher returns a nil publisher when no broker is
// configured; the detection service treats nil as "publishing disabled".
func provideIntelPublisher(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (ports.IntelPublisher, error) {
	if cfg.Intel.NATSURL == "" {
		return nil, nil
	}

	publisher, err := intel.NewNATSPublisher(cfg.Intel.NATSURL, cfg.Intel.Subject)
	if err != nil {
		return nil, errs.Wrap(err, "connect intel publisher")
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
		"intel publisher connected",
		slog.String("subject", cfg.Intel.Subject),
	)
	return publisher, nil
}

func provideDetectionService(
	incidents ports.IncidentRepository,
	honeypot ports.HoneypotRepository,
	analyzer ports.Analyzer,
	cache ports.Cache,
	publisher ports.IntelPublisher,
	cfg config.Config,
) *detection.Service {
	cacheTTL := time.Duration(cfg.Analysis.CacheTTLMinutes) * time.Minute
	return detection.NewService(incidents, honeypot, analyzer, cache, publisher, cacheTTL)
}

func provideRecoveryStore(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*recovery.Store, error) {
	store, err := recovery.NewStore(ctx, cfg.Recovery.Playbook)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := store.Watch(watchCtx); err != nil {
				// File watching is a convenience; a failed watcher still
				// leaves the startup copy in service.
				logging.Warn(
					logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
					"playbook watch unavailable",
					slog.Any("err", errs.Loggable(err)),
				)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})

	return store, nil
}
