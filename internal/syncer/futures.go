package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// miniMultiplier marks the mini contract in the TAIFEX list
const miniMultiplier = "100"

// MappingWriter replaces the whole futures mapping table
type MappingWriter interface {
	ReplaceFuturesMappings(ctx context.Context, mappings []contracts.FuturesMapping) (int, error)
}

// FuturesResult counts one mapping refresh
type FuturesResult struct {
	Fetched  int `json:"fetched"`  // contract rows read from the source
	Mappings int `json:"mappings"` // symbols written
}

// FuturesSyncer refreshes the stock futures mapping table.
// A failed or empty fetch leaves the table untouched.
type FuturesSyncer struct {
	fetcher contracts.MappingFetcher
	store   MappingWriter
	logger  *logger.Logger
}

// NewFuturesSyncer creates a futures mapping synchronizer
func NewFuturesSyncer(fetcher contracts.MappingFetcher, store MappingWriter, log *logger.Logger) *FuturesSyncer {
	return &FuturesSyncer{fetcher: fetcher, store: store, logger: log.WithComponent("futures")}
}

// Sync fetches the complete list and replaces the table in one transaction
func (s *FuturesSyncer) Sync(ctx context.Context) (FuturesResult, error) {
	raws, err := s.fetcher.FetchMappings(ctx)
	if err != nil {
		return FuturesResult{}, fmt.Errorf("fetch futures list: %w", err)
	}

	mappings := BuildMappings(raws)
	if len(mappings) == 0 {
		return FuturesResult{Fetched: len(raws)}, contracts.ErrEmptyMappingSet
	}

	n, err := s.store.ReplaceFuturesMappings(ctx, mappings)
	if err != nil {
		return FuturesResult{Fetched: len(raws)}, err
	}

	s.logger.WithFields(map[string]interface{}{
		"fetched":  len(raws),
		"mappings": n,
	}).Info("Futures mappings replaced")

	return FuturesResult{Fetched: len(raws), Mappings: n}, nil
}

// BuildMappings folds contract rows into one mapping per symbol, sorted by symbol.
// Multiplier "100" fills the mini contract, anything else the regular one.
func BuildMappings(raws []contracts.RawMapping) []contracts.FuturesMapping {
	bySymbol := make(map[string]*contracts.FuturesMapping)
	for _, r := range raws {
		if r.Symbol == "" || r.Contract == "" {
			continue
		}
		m, ok := bySymbol[r.Symbol]
		if !ok {
			m = &contracts.FuturesMapping{Symbol: r.Symbol}
			bySymbol[r.Symbol] = m
		}
		if r.Multiplier == miniMultiplier {
			m.MiniFuture = r.Contract
		} else {
			m.Future = r.Contract
		}
	}

	out := make([]contracts.FuturesMapping, 0, len(bySymbol))
	for _, m := range bySymbol {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
