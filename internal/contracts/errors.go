package contracts

import "errors"

// ⭐ SSOT: 에러 분류는 errors.Is로 판단
var (
	// ErrDiscovery means the listed universe could not be determined; fatal to the quote stage
	ErrDiscovery = errors.New("symbol discovery failed")

	// ErrSymbolNotFound means the source does not list the symbol; permanent, never retried
	ErrSymbolNotFound = errors.New("symbol not listed at source")

	// ErrUnknownSymbol means rows were offered for a symbol missing from the stock table
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrEmptyMappingSet means the futures source returned nothing usable
	ErrEmptyMappingSet = errors.New("empty futures mapping set")

	// ErrNotFound is returned by lookups with no match
	ErrNotFound = errors.New("not found")
)
