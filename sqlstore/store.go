// Package sqlstore implements the market data cache on a relational database through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/date"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// batchSize bounds the rows of a single INSERT statement.
const batchSize = 500

// Store is a marketcache.Store backed by gorm.
type Store struct {
	db *gorm.DB
}

var _ marketcache.Store = (*Store)(nil)

// New returns a Store on db. Call Migrate once before use.
func New(db *gorm.DB) *Store { return &Store{db: db} }

// Migrate creates or updates the cache tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&CacheEntry{}, &PricePoint{}); err != nil {
		return fmt.Errorf("migrating cache tables: %w", err)
	}
	return nil
}

func toRow(e marketcache.Entry) CacheEntry {
	row := CacheEntry{
		Symbol:      e.Symbol,
		CacheKey:    e.Key,
		Payload:     e.Payload,
		LastUpdated: e.LastUpdated.UTC(),
	}
	if q := e.Quote; q != nil {
		row.Price = decimal.NewNullDecimal(q.Price)
		row.Change = decimal.NewNullDecimal(q.Change)
		row.ChangePercent = decimal.NewNullDecimal(q.ChangePercent)
		row.Currency = q.Currency
		row.Sector = q.Sector
		row.Industry = q.Industry
	}
	return row
}

func fromRow(row CacheEntry) marketcache.Entry {
	e := marketcache.Entry{
		Symbol:      row.Symbol,
		Key:         row.CacheKey,
		Payload:     row.Payload,
		LastUpdated: row.LastUpdated.UTC(),
	}
	if row.Price.Valid {
		e.Quote = &marketcache.Quote{
			Symbol:        row.Symbol,
			Price:         row.Price.Decimal,
			Change:        row.Change.Decimal,
			ChangePercent: row.ChangePercent.Decimal,
			Currency:      row.Currency,
			Sector:        row.Sector,
			Industry:      row.Industry,
			LastUpdated:   e.LastUpdated,
		}
	}
	return e
}

// Lookup returns the entry for (symbol, key).
func (s *Store) Lookup(ctx context.Context, symbol, key string) (marketcache.Entry, bool, error) {
	var row CacheEntry
	err := s.db.WithContext(ctx).Where("symbol = ? AND cache_key = ?", symbol, key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return marketcache.Entry{}, false, nil
	}
	if err != nil {
		return marketcache.Entry{}, false, fmt.Errorf("query %s %q: %w", symbol, key, err)
	}
	return fromRow(row), true, nil
}

// LookupMany returns the entries for key of every symbol that has one, in a single query.
func (s *Store) LookupMany(ctx context.Context, symbols []string, key string) (map[string]marketcache.Entry, error) {
	entries := make(map[string]marketcache.Entry, len(symbols))
	if len(symbols) == 0 {
		return entries, nil
	}
	var rows []CacheEntry
	if err := s.db.WithContext(ctx).Where("cache_key = ? AND symbol IN ?", key, symbols).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query %d symbols %q: %w", len(symbols), key, err)
	}
	for _, row := range rows {
		entries[row.Symbol] = fromRow(row)
	}
	return entries, nil
}

// Upsert inserts or overwrites an entry.
func (s *Store) Upsert(ctx context.Context, e marketcache.Entry) error {
	return s.UpsertMany(ctx, []marketcache.Entry{e})
}

// UpsertMany inserts or overwrites entries, the last write of a key wins.
func (s *Store) UpsertMany(ctx context.Context, entries []marketcache.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]CacheEntry, len(entries))
	for i, e := range entries {
		rows[i] = toRow(e)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price", "price_change", "change_percent", "currency", "sector", "industry", "payload", "last_updated",
		}),
	}).CreateInBatches(&rows, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert %d cache entries: %w", len(rows), err)
	}
	return nil
}

// Series returns the cached daily closes of symbol in [from, to], in date order.
func (s *Store) Series(ctx context.Context, symbol string, from, to date.Date) ([]marketcache.Point, error) {
	var rows []PricePoint
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND day >= ? AND day <= ?", symbol, from.String(), to.String()).
		Order("day").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s series in [%s, %s]: %w", symbol, from, to, err)
	}
	points := make([]marketcache.Point, 0, len(rows))
	for _, row := range rows {
		day, err := date.Parse(row.Day)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q in %s series: %w", row.Day, symbol, err)
		}
		points = append(points, marketcache.Point{Date: day, Price: row.Price})
	}
	return points, nil
}

// UpsertSeries inserts or overwrites daily closes of symbol.
func (s *Store) UpsertSeries(ctx context.Context, symbol string, points []marketcache.Point) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]PricePoint, len(points))
	for i, p := range points {
		rows[i] = PricePoint{Symbol: symbol, Day: p.Date.String(), Price: p.Price}
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"price"}),
	}).CreateInBatches(&rows, batchSize).Error
	if err != nil {
		return fmt.Errorf("upsert %d %s closes: %w", len(rows), symbol, err)
	}
	return nil
}
