package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"workpassport/internal/bootstrap/config"
	"workpassport/internal/bootstrap/database"
	"workpassport/internal/bootstrap/logging"
	"workpassport/internal/infrastructure/chain"
	"workpassport/internal/infrastructure/oracle"
	sqlitekv "workpassport/internal/infrastructure/persistence/sqlite/kv"
	sqliterepo "workpassport/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "workpassport/internal/infrastructure/persistence/sqlite/uow"
	"workpassport/internal/ports"
	"workpassport/internal/usecase/monitor"
	"workpassport/internal/usecase/verifier"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCredentialRepository,
			fx.As(new(ports.CredentialRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReputationRepository,
			fx.As(new(ports.ReputationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewVerificationRepository,
			fx.As(new(ports.VerificationRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewActionLog,
			fx.As(new(ports.ActionLog)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqlitekv.NewAgentKV,
			fx.As(new(ports.KV)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(provideOracle),
	fx.Provide(provideRegistry),
	fx.Provide(provideMonitor),
	fx.Provide(verifier.NewService),
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

func provideOracle(cfg config.Config) (ports.CredentialOracle, ports.CompanyOracle) {
	classifier := oracle.NewClassifier(oracle.Config{
		APIKey:        cfg.Oracle.APIKey,
		BaseURL:       cfg.Oracle.BaseURL,
		Model:         cfg.Oracle.Model,
		CompanyPolicy: cfg.Oracle.CompanyPolicy,
	})
	return classifier, classifier
}

// provideRegistry connects to the configured chain RPC, or falls back
// to the disabled registry when no rpc_url is set. The disabled
// registry reports every lookup as unavailable, which the monitor's
// fail-open policy treats as verified.
func provideRegistry(ctx context.Context, cfg config.Config) (ports.CredentialRegistry, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	if cfg.Chain.RPCURL == "" {
		logging.Info(logCtx, "chain rpc url not configured, on-chain verification disabled")
		return chain.Disabled{}, nil
	}

	return chain.NewRegistry(logCtx, chain.Config{
		RPCURL:          cfg.Chain.RPCURL,
		RegistryAddress: cfg.Chain.RegistryAddress,
	})
}

func provideMonitor(
	cfg config.Config,
	creds ports.CredentialRepository,
	reputation ports.ReputationRepository,
	actions ports.ActionLog,
	kv ports.KV,
	uow ports.UnitOfWork,
	credOracle ports.CredentialOracle,
	registry ports.CredentialRegistry,
) *monitor.Service {
	return monitor.NewService(creds, reputation, actions, kv, uow, credOracle, registry, monitor.Config{
		VelocityThreshold: cfg.Agents.VelocityThreshold,
		VelocityWindow:    cfg.Agents.VelocityWindow,
		CheckpointMargin:  cfg.Agents.CheckpointMargin,
		CleanDelta:        cfg.Agents.ReputationCleanDelta,
		FlaggedDelta:      cfg.Agents.ReputationFlaggedDelta,
		FetchBatch:        cfg.Agents.FetchBatch,
	})
}
