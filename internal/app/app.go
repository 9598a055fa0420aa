package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/factstore/internal/config"
	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/Harshitk-cp/factstore/internal/search"
	"github.com/Harshitk-cp/factstore/internal/service"
	"github.com/Harshitk-cp/factstore/internal/store"
	"go.uber.org/zap"
)

type Options struct {
	Dialect        store.Dialect
	DSN            string
	IndexPath      string // empty keeps the index in memory
	ExpireInterval time.Duration
	Policy         config.Policy
	Clock          domain.Clock
}

// OptionsFromEnv builds Options from the environment and the policy file.
func OptionsFromEnv() (Options, error) {
	policy, err := config.LoadPolicy(config.PolicyFile())
	if err != nil {
		return Options{}, err
	}
	return Options{
		Dialect:        store.Dialect(config.DBDialect()),
		DSN:            config.DSN(),
		IndexPath:      config.IndexPath(),
		ExpireInterval: config.ExpireInterval(),
		Policy:         policy,
	}, nil
}

// App owns the database, the search index and every service built on them.
// It is acquired with Open and released with Close.
type App struct {
	DB    *store.DB
	Index *search.Index

	Facts         *service.FactService
	Graph         *service.GraphService
	Consolidation *service.ConsolidationService
	Forgetting    *service.ForgettingService
	Expirer       *service.ExpirerService
	Temporal      *service.TemporalService
	Patterns      *service.PatternService
	Changelog     *service.ChangelogService
	Activity      *service.ActivityService

	factStore *store.FactStore
	policy    config.Policy
	logger    *zap.Logger
	workers   []worker
}

type worker interface {
	Start()
	Stop()
}

func Open(ctx context.Context, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = domain.SystemClock
	}

	db, err := store.Open(ctx, opts.Dialect, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var idx *search.Index
	if opts.IndexPath == "" {
		idx, err = search.NewMemOnly()
	} else {
		idx, err = search.Open(opts.IndexPath)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open search index: %w", err)
	}

	factStore := store.NewFactStore(db, idx, clock, logger)
	ledgerStore := store.NewLedgerStore(db)
	relationStore := store.NewRelationStore(db, clock)
	archiveStore := store.NewArchiveStore(db)
	activityStore := store.NewActivityStore(db)

	a := &App{
		DB:            db,
		Index:         idx,
		Facts:         service.NewFactService(factStore, ledgerStore, idx, clock, logger),
		Graph:         service.NewGraphService(factStore, relationStore, logger),
		Consolidation: service.NewConsolidationService(factStore, logger),
		Forgetting:    service.NewForgettingService(factStore, clock, logger),
		Expirer:       service.NewExpirerService(factStore, clock, logger),
		Temporal:      service.NewTemporalService(factStore, activityStore, clock, logger),
		Patterns:      service.NewPatternService(activityStore, clock, logger),
		Changelog:     service.NewChangelogService(ledgerStore),
		Activity:      service.NewActivityService(activityStore, archiveStore, clock, logger),
		factStore:     factStore,
		policy:        opts.Policy,
		logger:        logger,
	}

	a.Expirer.SetInterval(opts.ExpireInterval)
	a.Consolidation.SetInterval(opts.Policy.Consolidation.Interval)
	a.Consolidation.SetOptions(opts.Policy.Consolidation.ConsolidationOptions)
	a.Forgetting.SetInterval(opts.Policy.Forgetting.Interval)
	a.Forgetting.SetOptions(opts.Policy.Forgetting.ForgettingOptions)

	count, err := idx.DocCount()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("count indexed facts: %w", err)
	}
	if count == 0 {
		if _, err := a.Reindex(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// Reindex rebuilds the search index from the live facts.
func (a *App) Reindex(ctx context.Context) (int, error) {
	n, err := a.factStore.RebuildIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	if n > 0 {
		a.logger.Info("search index rebuilt", zap.Int("facts", n))
	}
	return n, nil
}

// StartWorkers launches the expiry sweep and the maintenance workers the
// policy enables.
func (a *App) StartWorkers() {
	a.workers = append(a.workers, a.Expirer)
	if a.policy.Consolidation.Enabled {
		a.workers = append(a.workers, a.Consolidation)
	}
	if a.policy.Forgetting.Enabled {
		a.workers = append(a.workers, a.Forgetting)
	}
	for _, w := range a.workers {
		w.Start()
	}
}

func (a *App) StopWorkers() {
	for _, w := range a.workers {
		w.Stop()
	}
	a.workers = nil
}

// Close stops any running workers and releases the index and database.
func (a *App) Close() error {
	a.StopWorkers()
	return errors.Join(a.Index.Close(), a.DB.Close())
}
