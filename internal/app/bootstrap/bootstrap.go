package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	electionservice "univote/contexts/campus-elections/election-service"
	"univote/contexts/campus-elections/election-service/adapters/memory"
	postgresadapter "univote/contexts/campus-elections/election-service/adapters/postgres"
	"univote/contexts/campus-elections/election-service/adapters/security"
	"univote/contexts/campus-elections/election-service/application/commands"
	workerapp "univote/contexts/campus-elections/election-service/application/workers"
	"univote/contexts/campus-elections/election-service/ports"
	"univote/internal/platform/config"
	"univote/internal/platform/db"
	"univote/internal/platform/httpserver"
	"univote/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	idempotencyTTL  = 7 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
	relayBatchSize  = 100
)

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	events   *eventPipeline
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	events   *eventPipeline
	logger   *slog.Logger
}

// eventPipeline drains the outbox onto the bus and feeds the turnout
// projection from it.
type eventPipeline struct {
	relay        workerapp.OutboxRelay
	turnout      *workerapp.TurnoutConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI wires the election module over PostgreSQL, or over the memory
// store when POSTGRES_DSN is empty. With the memory store the outbox only
// exists inside this process, so the API runs the relay itself and serves
// the turnout projection. Over PostgreSQL the projection lives in the worker
// and the API's turnout route answers 503.
func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	deps, err := moduleDependencies(cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &APIApp{logger: logger}
	if cfg.PostgresDSN == "" {
		store := memory.NewStore()
		bindMemoryStore(&deps, store)
		app.events = newEventPipeline(cfg, store, store, logger)
		deps.Turnout = app.events.turnout
		logger.Warn("POSTGRES_DSN is empty, state is kept in memory",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	} else {
		pg, repo, err := connectRepository(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.postgres = pg
		bindRepository(&deps, repo)
	}

	module := electionservice.NewModule(deps)
	if err := seedAdmins(ctx, cfg, module, logger); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, repo, err := connectRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{
		postgres: pg,
		events:   newEventPipeline(cfg, repo, postgresadapter.SystemClock{}, logger),
		logger:   logger,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	if a.events != nil {
		group.Go(func() error {
			return a.events.run(groupCtx)
		})
	}

	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.events.pollInterval.String(),
	)
	return w.events.run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func newEventPipeline(
	cfg config.Config,
	outbox ports.OutboxRepository,
	clock ports.Clock,
	logger *slog.Logger,
) *eventPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	bus := messaging.NewBus(cfg.KafkaBrokers, logger)
	return &eventPipeline{
		relay: workerapp.OutboxRelay{
			Outbox:    outbox,
			Publisher: bus,
			Clock:     clock,
			BatchSize: relayBatchSize,
			Logger:    logger,
		},
		turnout:      workerapp.NewTurnoutConsumer(bus, logger),
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}
}

// run relays until ctx is cancelled. A failed cycle is logged and retried on
// the next tick; the relay resumes from the first unpublished row.
func (p *eventPipeline) run(ctx context.Context) error {
	if err := p.turnout.Start(ctx); err != nil {
		return err
	}
	interval := p.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func moduleDependencies(cfg config.Config, logger *slog.Logger) (electionservice.Dependencies, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return electionservice.Dependencies{}, errors.New("JWT_SECRET is required")
	}
	tokens, err := security.NewJWTIssuer(cfg.JWTSecret, cfg.ServiceName)
	if err != nil {
		return electionservice.Dependencies{}, err
	}
	return electionservice.Dependencies{
		Hasher:            security.BcryptHasher{},
		Tokens:            tokens,
		SessionTTL:        cfg.SessionTTL,
		IdempotencyTTL:    idempotencyTTL,
		StrictTransitions: cfg.StrictStatusTransitions,
		DefaultLocation:   cfg.DefaultLocation(),
		Logger:            logger,
	}, nil
}

func bindMemoryStore(deps *electionservice.Dependencies, store *memory.Store) {
	deps.Voters = store
	deps.Admins = store
	deps.Elections = store
	deps.Candidates = store
	deps.Votes = store
	deps.Idempotency = store
	deps.Clock = store
	deps.IDGen = store
}

func bindRepository(deps *electionservice.Dependencies, repo *postgresadapter.Repository) {
	deps.Voters = repo
	deps.Admins = repo
	deps.Elections = repo
	deps.Candidates = repo
	deps.Votes = repo
	deps.Idempotency = repo
	deps.Clock = postgresadapter.SystemClock{}
	deps.IDGen = postgresadapter.UUIDGenerator{}
}

func connectRepository(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
) (*db.Postgres, *postgresadapter.Repository, error) {
	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.DefaultPoolOptions(), logger)
	if err != nil {
		return nil, nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return pg, repo, nil
}

func seedAdmins(ctx context.Context, cfg config.Config, module electionservice.Module, logger *slog.Logger) error {
	seeds, err := config.LoadAdminSeeds(cfg.AdminSeedFile)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return nil
	}
	converted := make([]commands.AdminSeed, 0, len(seeds))
	for _, seed := range seeds {
		converted = append(converted, commands.AdminSeed{
			Username:  seed.Username,
			Password:  seed.Password,
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
			Email:     seed.Email,
			Role:      seed.Role,
		})
	}
	created, err := module.Admins.SeedAdmins(ctx, converted)
	if err != nil {
		return err
	}
	logger.Info("admin seed applied",
		"event", "bootstrap_admin_seed_applied",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"seed_count", len(seeds),
		"created_count", created,
	)
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
