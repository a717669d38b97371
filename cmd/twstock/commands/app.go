package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/twstock/internal/calendar"
	"github.com/wonny/twstock/internal/external/taifex"
	"github.com/wonny/twstock/internal/external/tpex"
	"github.com/wonny/twstock/internal/external/twse"
	"github.com/wonny/twstock/internal/merge"
	"github.com/wonny/twstock/internal/planner"
	"github.com/wonny/twstock/internal/source"
	"github.com/wonny/twstock/internal/store"
	"github.com/wonny/twstock/internal/syncer"
	"github.com/wonny/twstock/pkg/config"
	"github.com/wonny/twstock/pkg/database"
	"github.com/wonny/twstock/pkg/httputil"
	"github.com/wonny/twstock/pkg/logger"
	"github.com/wonny/twstock/pkg/redis"
)

// app holds the wired dependencies shared by every command
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	store *store.Store
	cal   *calendar.Calendar
	redis *redis.Client
	cache *source.ReportCache

	orchestrator *syncer.Orchestrator
}

// openStore loads config and opens the migrated store.
// Read-only commands stop here.
func openStore(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	st := store.New(db.Gorm, log)
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	log.WithField("driver", db.Driver).Debug("Store ready")

	return &app{cfg: cfg, log: log, db: db, store: st}, nil
}

// newApp wires the store, the sources and the synchronizers
func newApp(ctx context.Context) (*app, error) {
	a, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	// 4. Trading calendar
	cal, err := calendar.Load(cfg.Sync.HolidaysFile)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}
	a.cal = cal
	if missing := cal.Uncovered(cfg.Sync.QuoteEpoch.Year(), time.Now().Year()); len(missing) > 0 {
		log.WithField("years", missing).Warn("Holiday calendar has no entries for these years; closures will be requested")
	}

	// 5. Redis (optional shared limiter and report cache)
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	limiter := redis.NewRateLimiter(rc, "twstock:ratelimit")

	// 6. Create HTTP clients, one per source so each keeps its own pace
	newHTTP := func(name string, sc config.SourceConfig) *httputil.Client {
		c := httputil.New(cfg, log.WithField("source", name)).WithMinInterval(sc.MinInterval)
		if rc.Enabled() {
			c = c.WithRateLimiter(limiter, redis.SourceRateLimit(name, sc.MinInterval))
		}
		return c
	}

	// 7. Create external API clients
	twseClient := twse.NewClient(newHTTP(twse.Source, cfg.TWSE), log, cfg.TWSE.BaseURL)
	tpexClient := tpex.NewClient(newHTTP(tpex.Source, cfg.TPEx), log, cfg.TPEx.BaseURL)
	taifexClient := taifex.NewClient(newHTTP("taifex", cfg.TAIFEX), log, cfg.TAIFEX.BaseURL)

	// 8. Fetch adapters
	cache, err := source.NewReportCache(ctx, cfg.Sync.CacheMB, redis.NewCache(rc, "twstock"), log)
	if err != nil {
		return fmt.Errorf("create report cache: %w", err)
	}
	a.cache = cache

	quoteSource := source.NewQuoteAdapter(cal, twseClient, tpexClient, cache, log)
	indexSource := source.NewIndexAdapter(twseClient, log)
	mappingSource := source.NewMappingAdapter(taifexClient, log)

	// 9. Merge engine and planners
	engine := merge.NewEngine(a.store, cal, log)
	quotePlanner := planner.New(cal, planner.Config{
		Epoch:          cfg.Sync.QuoteEpoch,
		Chunking:       planner.ByTradingDays,
		MaxTradingDays: cfg.Sync.MaxSpanDays,
	})
	indexPlanner := planner.New(cal, planner.Config{
		Epoch:    cfg.Sync.IndexEpoch,
		Chunking: planner.ByMonth,
	})

	// 10. Synchronizers
	a.orchestrator = syncer.NewOrchestrator(
		syncer.NewRegistrySyncer(quoteSource, a.store, log),
		syncer.NewQuoteSyncer(a.store, quoteSource, engine, quotePlanner, cfg.Sync.Workers, log),
		syncer.NewIndexSyncer(a.store, indexSource, engine, indexPlanner, log),
		syncer.NewFuturesSyncer(mappingSource, a.store, log),
		log,
	)

	log.WithFields(map[string]interface{}{
		"workers":  cfg.Sync.Workers,
		"redis":    rc.Enabled(),
		"holidays": cfg.Sync.HolidaysFile,
	}).Debug("Synchronizers ready")

	return nil
}

// horizon returns --today, or the market-local date the last close belongs to
func (a *app) horizon() (time.Time, error) {
	today, ok, err := parseToday()
	if err != nil || ok {
		return today, err
	}
	return syncer.Horizon(time.Now(), a.cfg.Market.Location, a.cfg.Market.CloseCutoff), nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close report cache")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	a.db.Close()
}
