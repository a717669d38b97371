package contracts

import (
	"context"
	"time"
)

// WatermarkReader exposes stored coverage to the planners
// ⭐ SSOT: 워터마크 조회 인터페이스
type WatermarkReader interface {
	ListSymbols(ctx context.Context) ([]Symbol, error)
	IndexWatermark(ctx context.Context) (Watermark, error)
}

// UniverseSource discovers the securities currently listed
type UniverseSource interface {
	Discover(ctx context.Context, asOf time.Time) ([]Listing, error)
}

// QuoteFetcher returns raw daily rows for one symbol over a range.
// Returns ErrSymbolNotFound when the symbol is no longer listed.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, symbol Symbol, r DateRange) ([]RawQuote, error)
}

// IndexFetcher returns raw TAIEX rows over a range
type IndexFetcher interface {
	FetchIndex(ctx context.Context, r DateRange) ([]RawIndex, error)
}

// MappingFetcher returns the complete stock futures list
type MappingFetcher interface {
	FetchMappings(ctx context.Context) ([]RawMapping, error)
}
