package source

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
	"github.com/wonny/twstock/pkg/redis"
)

// failureTTL is how long a failed report load is answered from memory
const failureTTL = 5 * time.Minute

// Loader fetches one daily report from its source
type Loader func(ctx context.Context) ([]contracts.RawQuote, error)

// ReportCache keeps daily market reports close to the fetchers.
// L1 is an in-process bigcache holding one entry per report row plus an index
// of the symbols each report lists. L2 is the shared redis cache (optional).
// ⭐ SSOT: 일별 리포트 캐시는 여기서만
type ReportCache struct {
	local  *bigcache.BigCache
	remote *redis.Cache
	logger *logger.Logger
	group  singleflight.Group
	now    func() time.Time

	mu       sync.Mutex
	failures map[string]failure
}

type failure struct {
	err   error
	until time.Time
}

// NewReportCache creates a report cache bounded to sizeMB in process.
// remote may be nil.
func NewReportCache(ctx context.Context, sizeMB int, remote *redis.Cache, log *logger.Logger) (*ReportCache, error) {
	cfg := bigcache.DefaultConfig(12 * time.Hour)
	cfg.Shards = 256
	cfg.MaxEntriesInWindow = 50000
	cfg.MaxEntrySize = 256
	cfg.HardMaxCacheSize = sizeMB
	cfg.Verbose = false

	local, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if remote == nil {
		remote = redis.NewCache(redis.Disabled(), "")
	}

	return &ReportCache{
		local:    local,
		remote:   remote,
		logger:   log.WithComponent("report_cache"),
		now:      time.Now,
		failures: make(map[string]failure),
	}, nil
}

// Close releases the in-process cache
func (c *ReportCache) Close() error {
	return c.local.Close()
}

// Row returns symbol's row of market's report for date, loading the report on a miss.
// found is false when the report does not list the symbol.
func (c *ReportCache) Row(ctx context.Context, market string, date time.Time, symbol string, load Loader) (contracts.RawQuote, bool, error) {
	key := redis.ReportKey(market, date)

	if row, ok := c.localRow(key, symbol); ok {
		return row, true, nil
	}
	if ids, ok := c.localIndex(key); ok && !contains(ids, symbol) {
		return contracts.RawQuote{}, false, nil
	}

	report, err := c.Report(ctx, market, date, load)
	if err != nil {
		return contracts.RawQuote{}, false, err
	}
	for _, row := range report {
		if row.Symbol == symbol {
			return row, true, nil
		}
	}
	return contracts.RawQuote{}, false, nil
}

// Report returns market's full report for date.
// Concurrent callers share one load; a failed load is remembered for failureTTL.
func (c *ReportCache) Report(ctx context.Context, market string, date time.Time, load Loader) ([]contracts.RawQuote, error) {
	key := redis.ReportKey(market, date)

	if report, ok := c.localReport(key); ok {
		return report, nil
	}
	if err := c.recentFailure(key); err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fill(ctx, key, date, load)
	})
	if err != nil {
		if ctx.Err() == nil {
			c.remember(key, err)
		}
		return nil, err
	}
	return v.([]contracts.RawQuote), nil
}

func (c *ReportCache) fill(ctx context.Context, key string, date time.Time, load Loader) ([]contracts.RawQuote, error) {
	var report []contracts.RawQuote

	found, err := c.remote.Get(ctx, key, &report)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Remote report cache read failed")
	}

	if !found {
		report, err = load(ctx)
		if err != nil {
			return nil, err
		}
		// Empty reports are usually "not published yet"; keep them local only
		if len(report) > 0 {
			if err := c.remote.Set(ctx, key, report, redis.ReportTTL(date, c.now())); err != nil {
				c.logger.WithField("key", key).WithError(err).Warn("Remote report cache write failed")
			}
		}
	}

	c.storeLocal(key, report)
	return report, nil
}

func (c *ReportCache) recentFailure(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.failures[key]
	if !ok {
		return nil
	}
	if c.now().After(f.until) {
		delete(c.failures, key)
		return nil
	}
	return f.err
}

func (c *ReportCache) remember(key string, err error) {
	c.mu.Lock()
	c.failures[key] = failure{err: err, until: c.now().Add(failureTTL)}
	c.mu.Unlock()
}

func indexKey(key string) string {
	return "idx:" + key
}

func rowKey(key, symbol string) string {
	return key + ":" + symbol
}

// storeLocal writes rows first and the index last; the index implies its rows were stored
func (c *ReportCache) storeLocal(key string, report []contracts.RawQuote) {
	ids := make([]string, 0, len(report))
	for _, row := range report {
		data, err := json.Marshal(row)
		if err != nil {
			continue
		}
		if err := c.local.Set(rowKey(key, row.Symbol), data); err != nil {
			c.logger.WithField("key", key).WithError(err).Debug("Local cache write failed")
			return
		}
		ids = append(ids, row.Symbol)
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.local.Set(indexKey(key), data); err != nil {
		c.logger.WithField("key", key).WithError(err).Debug("Local cache write failed")
	}
}

func (c *ReportCache) localIndex(key string) ([]string, bool) {
	data, err := c.local.Get(indexKey(key))
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			c.logger.WithError(err).Debug("Local cache read failed")
		}
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *ReportCache) localRow(key, symbol string) (contracts.RawQuote, bool) {
	data, err := c.local.Get(rowKey(key, symbol))
	if err != nil {
		return contracts.RawQuote{}, false
	}

	var row contracts.RawQuote
	if err := json.Unmarshal(data, &row); err != nil {
		return contracts.RawQuote{}, false
	}
	return row, true
}

// localReport rebuilds a report from L1; any evicted row counts as a miss
func (c *ReportCache) localReport(key string) ([]contracts.RawQuote, bool) {
	ids, ok := c.localIndex(key)
	if !ok {
		return nil, false
	}

	report := make([]contracts.RawQuote, 0, len(ids))
	for _, id := range ids {
		row, ok := c.localRow(key, id)
		if !ok {
			return nil, false
		}
		report = append(report, row)
	}
	return report, true
}

func contains(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}
