package source

import (
	"context"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

// MappingAdapter serves the stock futures list with repeated rows removed
type MappingAdapter struct {
	source contracts.MappingFetcher
	logger *logger.Logger
}

// NewMappingAdapter creates a mapping adapter
func NewMappingAdapter(src contracts.MappingFetcher, log *logger.Logger) *MappingAdapter {
	return &MappingAdapter{source: src, logger: log.WithComponent("mapping_source")}
}

// FetchMappings returns the complete list; an error means nothing is usable
func (a *MappingAdapter) FetchMappings(ctx context.Context) ([]contracts.RawMapping, error) {
	rows, err := a.source.FetchMappings(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[contracts.RawMapping]bool, len(rows))
	out := make([]contracts.RawMapping, 0, len(rows))
	for _, row := range rows {
		if row.Contract == "" || row.Symbol == "" || seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}

	if dropped := len(rows) - len(out); dropped > 0 {
		a.logger.WithField("dropped", dropped).Debug("Dropped repeated futures rows")
	}
	return out, nil
}
