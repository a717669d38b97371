package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wonny/twstock/internal/contracts"
	"github.com/wonny/twstock/pkg/logger"
)

const batchSize = 500

// Store persists symbols, quotes, the index series and futures mappings
// ⭐ SSOT: stock/quote/twse/stock_future 테이블 접근은 여기서만
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

// New creates a store on an open gorm handle
func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, logger: log.WithComponent("store")}
}

// Migrate creates or updates the schema, including stock_future_view
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&StockModel{}, &QuoteModel{}, &IndexModel{}, &StockFutureModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	create := "CREATE OR REPLACE VIEW"
	if db.Dialector.Name() == "sqlite" {
		create = "CREATE VIEW IF NOT EXISTS"
	}
	view := create + ` stock_future_view AS
		SELECT s.id AS id, s.name AS name, s.market AS market,
		       f.future AS future, f.mini_future AS mini_future,
		       s.mindate AS mindate, s.maxdate AS maxdate
		FROM stock s LEFT JOIN stock_future f ON f.symbol = s.id`
	if err := db.Exec(view).Error; err != nil {
		return fmt.Errorf("create stock_future_view: %w", err)
	}
	return nil
}

// ListSymbols returns every tracked symbol in ascending id order
func (s *Store) ListSymbols(ctx context.Context) ([]contracts.Symbol, error) {
	var rows []StockModel
	err := s.db.WithContext(ctx).
		Where("id NOT IN ?", marketMarkerIDs).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	symbols := make([]contracts.Symbol, 0, len(rows))
	for _, r := range rows {
		symbols = append(symbols, r.toSymbol())
	}
	return symbols, nil
}

// IndexWatermark derives the TAIEX coverage from the twse table
func (s *Store) IndexWatermark(ctx context.Context) (contracts.Watermark, error) {
	wm, err := seriesWatermark(s.db.WithContext(ctx).Model(&IndexModel{}))
	if err != nil {
		return contracts.Watermark{}, fmt.Errorf("index watermark: %w", err)
	}
	return wm, nil
}

// ReconcileSymbols inserts unseen listings with an empty watermark and updates
// name/market of known ones. Symbols missing from listings are kept.
func (s *Store) ReconcileSymbols(ctx context.Context, listings []contracts.Listing) (contracts.ReconcileResult, error) {
	result := contracts.ReconcileResult{Discovered: len(listings)}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []StockModel
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		known := make(map[string]StockModel, len(existing))
		for _, e := range existing {
			known[e.ID] = e
		}

		for _, l := range listings {
			cur, ok := known[l.ID]
			switch {
			case !ok:
				row := StockModel{ID: l.ID, Name: l.Name, Market: l.Market}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("insert %s: %w", l.ID, err)
				}
				known[l.ID] = row
				result.Added++
			case cur.Name != l.Name || cur.Market != l.Market:
				err := tx.Model(&StockModel{}).Where("id = ?", l.ID).
					Updates(map[string]interface{}{"name": l.Name, "market": l.Market}).Error
				if err != nil {
					return fmt.Errorf("update %s: %w", l.ID, err)
				}
				cur.Name, cur.Market = l.Name, l.Market
				known[l.ID] = cur
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return contracts.ReconcileResult{}, fmt.Errorf("reconcile symbols: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"discovered": result.Discovered,
		"added":      result.Added,
		"updated":    result.Updated,
	}).Info("Symbols reconciled")

	return result, nil
}

// ApplyQuotes upserts quotes of one symbol and recomputes its watermark in one transaction.
// Returns ErrUnknownSymbol (nothing written) if the symbol is not in the stock table.
func (s *Store) ApplyQuotes(ctx context.Context, symbol string, quotes []contracts.Quote) (contracts.Watermark, error) {
	var wm contracts.Watermark

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&StockModel{}).Where("id = ?", symbol).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s: %w", symbol, contracts.ErrUnknownSymbol)
		}

		rows := make([]QuoteModel, 0, len(quotes))
		for _, q := range quotes {
			if q.Symbol != symbol {
				return fmt.Errorf("quote for %s in batch of %s", q.Symbol, symbol)
			}
			rows = append(rows, toQuoteModel(q))
		}

		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}, {Name: "symbol"}},
				UpdateAll: true,
			}).CreateInBatches(&rows, batchSize).Error
			if err != nil {
				return fmt.Errorf("upsert quotes: %w", err)
			}
		}

		var err error
		wm, err = seriesWatermark(tx.Model(&QuoteModel{}).Where("symbol = ?", symbol))
		if err != nil {
			return err
		}
		if !wm.Present {
			return nil
		}

		return tx.Model(&StockModel{}).Where("id = ?", symbol).
			Updates(map[string]interface{}{"mindate": wm.MinDate, "maxdate": wm.MaxDate}).Error
	})
	if err != nil {
		return contracts.Watermark{}, fmt.Errorf("apply quotes %s: %w", symbol, err)
	}
	return wm, nil
}

// ApplyIndexQuotes upserts TAIEX rows and returns the new index watermark
func (s *Store) ApplyIndexQuotes(ctx context.Context, quotes []contracts.IndexQuote) (contracts.Watermark, error) {
	var wm contracts.Watermark

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]IndexModel, 0, len(quotes))
		for _, q := range quotes {
			rows = append(rows, IndexModel{Date: q.Date, Open: q.Open, High: q.High, Low: q.Low, Close: q.Close})
		}

		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}},
				UpdateAll: true,
			}).CreateInBatches(&rows, batchSize).Error
			if err != nil {
				return fmt.Errorf("upsert index: %w", err)
			}
		}

		var err error
		wm, err = seriesWatermark(tx.Model(&IndexModel{}))
		return err
	})
	if err != nil {
		return contracts.Watermark{}, fmt.Errorf("apply index quotes: %w", err)
	}
	return wm, nil
}

// ReplaceFuturesMappings swaps the whole stock_future table in one transaction
func (s *Store) ReplaceFuturesMappings(ctx context.Context, mappings []contracts.FuturesMapping) (int, error) {
	rows := make([]StockFutureModel, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, StockFutureModel{
			Symbol:     m.Symbol,
			Future:     optional(m.Future),
			MiniFuture: optional(m.MiniFuture),
			Reserved:   m.Reserved,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM stock_future").Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace futures mappings: %w", err)
	}
	return len(rows), nil
}

// FuturesMappings returns the stored mappings ordered by symbol
func (s *Store) FuturesMappings(ctx context.Context) ([]contracts.FuturesMapping, error) {
	var rows []StockFutureModel
	if err := s.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list futures mappings: %w", err)
	}

	out := make([]contracts.FuturesMapping, 0, len(rows))
	for _, r := range rows {
		out = append(out, contracts.FuturesMapping{
			Symbol:     r.Symbol,
			Future:     deref(r.Future),
			MiniFuture: deref(r.MiniFuture),
			Reserved:   r.Reserved,
		})
	}
	return out, nil
}

// seriesWatermark reads the first and last stored dates of a scoped query.
// ORDER BY + LIMIT keeps the column's declared type, so sqlite hands back time values.
func seriesWatermark(scope *gorm.DB) (contracts.Watermark, error) {
	var first, last []time.Time
	if err := scope.Session(&gorm.Session{}).Order("date ASC").Limit(1).Pluck("date", &first).Error; err != nil {
		return contracts.Watermark{}, fmt.Errorf("min date: %w", err)
	}
	if len(first) == 0 {
		return contracts.Watermark{}, nil
	}
	if err := scope.Session(&gorm.Session{}).Order("date DESC").Limit(1).Pluck("date", &last).Error; err != nil {
		return contracts.Watermark{}, fmt.Errorf("max date: %w", err)
	}
	return contracts.NewWatermark(dateOnly(first[0]), dateOnly(last[0])), nil
}
