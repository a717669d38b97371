package contracts

import "time"

// Raw records carry source values as cleaned strings.
// The merge engine parses and validates them into Quote / IndexQuote.

// RawQuote is one row of a daily market report
type RawQuote struct {
	Source    string    `json:"source"` // twse, tpex
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Volume    string    `json:"volume"`
	Turnover  string    `json:"turnover"`
	TickCount string    `json:"tickcount"`
	Open      string    `json:"open"`
	High      string    `json:"high"`
	Low       string    `json:"low"`
	Close     string    `json:"close"`
	Delta     string    `json:"delta"` // signed, "" when not comparable
}

// RawIndex is one row of the TAIEX history report
type RawIndex struct {
	Date  time.Time `json:"date"`
	Open  string    `json:"open"`
	High  string    `json:"high"`
	Low   string    `json:"low"`
	Close string    `json:"close"`
}

// RawMapping is one row of the TAIFEX stock futures list
type RawMapping struct {
	Contract   string `json:"contract"` // e.g. "CDF"
	Symbol     string `json:"symbol"`
	Multiplier string `json:"multiplier"` // "100" marks the mini contract
}
