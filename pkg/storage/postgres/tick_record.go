package postgres

import (
	"time"

	"stockfeed/internal/market"
)

// TickRecord is one appended row of the tick log. There is no uniqueness
// constraint: one row per received message, in per-connection arrival order
// (the serial id doubles as the arrival-order tie-break for equal timestamps).
type TickRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol string    `gorm:"type:text;not null;index:idx_tick_symbol_ts"`
	TS     time.Time `gorm:"not null;index:idx_tick_symbol_ts"`

	LTP float64 `gorm:"type:numeric;not null"`
	Bid float64 `gorm:"type:numeric;not null"`
	Ask float64 `gorm:"type:numeric;not null"`
	Vol int64   `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (TickRecord) TableName() string {
	return "ticks"
}

// TokenRecord is the broker access-token row maintained out-of-band by the
// rotation job; this service only reads it.
type TokenRecord struct {
	Name   string    `gorm:"primaryKey;type:text"`
	Token  string    `gorm:"type:text;not null"`
	Expiry time.Time
}

func (TokenRecord) TableName() string {
	return "tokens"
}

// ToTickRecord converts a normalized tick into its log row.
func ToTickRecord(t market.Tick) *TickRecord {
	return &TickRecord{
		Symbol: t.Symbol,
		TS:     t.TS,
		LTP:    t.LTP,
		Bid:    t.Bid,
		Ask:    t.Ask,
		Vol:    t.Vol,
	}
}

// Tick converts a log row back into the domain shape.
func (r *TickRecord) Tick() market.Tick {
	return market.Tick{
		Symbol: r.Symbol,
		TS:     r.TS,
		LTP:    r.LTP,
		Bid:    r.Bid,
		Ask:    r.Ask,
		Vol:    r.Vol,
	}
}
