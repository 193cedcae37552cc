package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"stockfeed/internal/market"
)

// ErrNoToken is returned when the token table has no row under the given name.
var ErrNoToken = errors.New("no token row")

// AppendTick appends one row to the tick log. The log is append-only; rows
// are never updated or deleted.
func (p *PostgresClient) AppendTick(ctx context.Context, t market.Tick) error {
	tx := p.DB.WithContext(ctx).Create(ToTickRecord(t))
	if tx.Error != nil {
		return fmt.Errorf("append tick for %s: %w", t.Symbol, tx.Error)
	}
	return nil
}

// TicksBetween reads the tick log for one symbol, optionally bounded by
// [start, end], ordered by timestamp ascending with the serial id breaking
// ties in arrival order.
func (p *PostgresClient) TicksBetween(ctx context.Context, symbol string, start, end *time.Time) ([]market.Tick, error) {
	q := p.DB.WithContext(ctx).
		Model(&TickRecord{}).
		Where("symbol = ?", symbol)

	if start != nil {
		q = q.Where("ts >= ?", *start)
	}
	if end != nil {
		q = q.Where("ts <= ?", *end)
	}

	var records []TickRecord
	if err := q.Order("ts ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("read ticks for %s: %w", symbol, err)
	}

	out := make([]market.Tick, 0, len(records))
	for i := range records {
		out = append(out, records[i].Tick())
	}
	return out, nil
}

// GetToken reads the current access token stored under name.
func (p *PostgresClient) GetToken(ctx context.Context, name string) (string, error) {
	var record TokenRecord
	err := p.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token %q: %w", name, err)
	}
	if record.Token == "" {
		return "", ErrNoToken
	}
	return record.Token, nil
}
