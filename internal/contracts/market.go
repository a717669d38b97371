package contracts

import "strings"

// Markets a Symbol can belong to
const (
	MarketTWSE = "TWSE" // Taiwan Stock Exchange (listed)
	MarketOTC  = "OTC"  // Taipei Exchange (over the counter)
)

// IndexID identifies the single benchmark index series
const IndexID = "TAIEX"

// NormalizeMarket maps user input to a market code.
// "TPEX" is accepted as an alias of OTC. Unknown input returns "".
func NormalizeMarket(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case MarketTWSE:
		return MarketTWSE
	case MarketOTC, "TPEX":
		return MarketOTC
	default:
		return ""
	}
}
