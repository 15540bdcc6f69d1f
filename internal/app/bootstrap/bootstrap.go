package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	votingengine "chamahub/contexts/group-governance/voting-engine"
	postgresadapter "chamahub/contexts/group-governance/voting-engine/adapters/postgres"
	workerapp "chamahub/contexts/group-governance/voting-engine/application/workers"
	"chamahub/internal/platform/config"
	"chamahub/internal/platform/db"
	"chamahub/internal/platform/httpserver"
	"chamahub/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	sweeper      workerapp.LifecycleSweeper
	outboxRelay  workerapp.OutboxRelay
	membership   workerapp.MembershipConsumer
	runSweeper    bool
	runRelay      bool
	runConsumer   bool
	sweepInterval time.Duration
	relayInterval time.Duration
	logger        *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := votingengine.NewModule(votingengine.Dependencies{
		Votes:          repo,
		Ballots:        repo,
		Membership:     repo,
		Authorization:  repo,
		Idempotency:    repo,
		Outbox:         repo,
		Clock:          postgresadapter.SystemClock{},
		IDGen:          postgresadapter.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := votingengine.NewModule(votingengine.Dependencies{
		Votes:          repo,
		Ballots:        repo,
		Membership:     repo,
		Authorization:  repo,
		Idempotency:    repo,
		Outbox:         repo,
		Clock:          postgresadapter.SystemClock{},
		IDGen:          postgresadapter.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	return &WorkerApp{
		postgres: pg,
		sweeper: workerapp.LifecycleSweeper{
			Votes:     repo,
			UseCase:   module.Votes,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.SweepBatchSize,
			Logger:    logger,
		},
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		membership: workerapp.MembershipConsumer{
			Subscriber: kafka,
			Dedup:      repo,
			Projection: repo,
			DedupTTL:   7 * 24 * time.Hour,
			Logger:     logger,
		},
		runSweeper:    cfg.EnableLifecycleSweeper,
		runRelay:      cfg.EnableOutboxRelay,
		runConsumer:   cfg.EnableMembershipConsumer,
		sweepInterval: cfg.SweepInterval,
		relayInterval: cfg.OutboxPollInterval,
		logger:        logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.runConsumer {
		if err := w.membership.Start(ctx); err != nil {
			return err
		}
	}

	sweepTicker := time.NewTicker(w.sweepInterval)
	defer sweepTicker.Stop()
	relayTicker := time.NewTicker(w.relayInterval)
	defer relayTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
		"relay_interval", w.relayInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sweepTicker.C:
			if w.runSweeper {
				if err := w.sweeper.RunOnce(ctx); err != nil {
					return err
				}
			}
		case <-relayTicker.C:
			if w.runRelay {
				if err := w.outboxRelay.RunOnce(ctx); err != nil {
					return err
				}
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
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
