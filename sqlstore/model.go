package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"
)

// CacheEntry is one row of the market data cache, keyed by (symbol, cache_key).
//
// Price rows use the flattened quote columns, every other class uses Payload.
type CacheEntry struct {
	Symbol        string              `gorm:"primaryKey;size:64"`
	CacheKey      string              `gorm:"primaryKey;size:191"`
	Price         decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	Change        decimal.NullDecimal `gorm:"column:price_change;type:decimal(24,8)"`
	ChangePercent decimal.NullDecimal `gorm:"type:decimal(24,8)"`
	Currency      string              `gorm:"size:8"`
	Sector        string              `gorm:"size:128"`
	Industry      string              `gorm:"size:128"`
	Payload       []byte
	LastUpdated   time.Time `gorm:"not null;index"`
}

func (CacheEntry) TableName() string { return "market_cache" }

// PricePoint is one daily close, keyed by (symbol, day).
type PricePoint struct {
	Symbol string          `gorm:"primaryKey;size:64"`
	Day    string          `gorm:"primaryKey;size:10"` // ISO 8601, sorts like dates
	Price  decimal.Decimal `gorm:"type:decimal(24,8);not null"`
}

func (PricePoint) TableName() string { return "price_history" }
