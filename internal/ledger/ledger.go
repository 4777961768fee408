// Package ledger is the embedded durable trade ledger (§4.5): one SQLite
// database per engine process, recording buy/sell events idempotently and
// deriving per-(account,nft_id) positions and profit aggregates.
//
// Grounded on the teacher pack's GORM-backed transaction recorder, with the
// driver swapped from MySQL to an embedded gorm.io/driver/sqlite database so
// the ledger needs no external server, matching the "embedded... store"
// requirement.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

// eventRecord is the GORM model for the events table.
type eventRecord struct {
	Account    string `gorm:"primaryKey"`
	EventID    string `gorm:"primaryKey"`
	Kind       string
	NftID      string
	GiftName   string
	Model      string
	Background string
	Price      string
	Fee        string
	TS         int64 `gorm:"index"`
}

func (eventRecord) TableName() string { return "events" }

// positionRecord is the GORM model for the positions table.
type positionRecord struct {
	Account    string `gorm:"primaryKey"`
	NftID      string `gorm:"primaryKey"`
	GiftName   string
	Model      string
	Background string
	BuyPrice   string
	BuyTS      int64
	SellPrice  string
	SellTS     int64
	Status     string `gorm:"index"`
}

func (positionRecord) TableName() string { return "positions" }

// Ledger is the durable trade ledger. The underlying *gorm.DB handle is
// guarded by mu: the spec requires only a single writer at a time, not
// per-table locking.
type Ledger struct {
	mu sync.Mutex
	db *gorm.DB
}

// Open creates (or reuses) a SQLite database file at path and migrates its
// schema.
func Open(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, &types.LedgerError{Msg: "open database", Err: err}
	}
	if err := db.AutoMigrate(&eventRecord{}, &positionRecord{}); err != nil {
		return nil, &types.LedgerError{Msg: "migrate schema", Err: err}
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordTrade inserts a TradeEvent and updates the corresponding position
// atomically. Returns false, without side effects, when the event's
// (account,event_id) key already exists.
func (l *Ledger) RecordTrade(event types.TradeEvent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accepted := false
	err := l.db.Transaction(func(tx *gorm.DB) error {
		rec := eventRecord{
			Account:    event.Account,
			EventID:    event.EventID,
			Kind:       string(event.Kind),
			NftID:      event.NftID,
			GiftName:   event.GiftName,
			Model:      event.Model,
			Background: event.Background,
			Price:      event.Price.StringFixed(2),
			Fee:        event.Fee.StringFixed(2),
			TS:         event.TS,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return nil
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		accepted = true
		return applyPositionUpdate(tx, event)
	})
	if err != nil {
		return false, &types.LedgerError{Msg: "record trade", Err: err}
	}
	return accepted, nil
}

// applyPositionUpdate mutates the positions table per the invariants in §3:
// a buy opens a position at the buy price; a sell closes the open position
// (preserving its buy price) or opens a zero-buy-price closed position.
func applyPositionUpdate(tx *gorm.DB, event types.TradeEvent) error {
	var existing positionRecord
	err := tx.Where("account = ? AND nft_id = ?", event.Account, event.NftID).First(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	switch event.Kind {
	case types.EventBuy:
		rec := positionRecord{
			Account:    event.Account,
			NftID:      event.NftID,
			GiftName:   event.GiftName,
			Model:      event.Model,
			Background: event.Background,
			BuyPrice:   event.Price.StringFixed(2),
			BuyTS:      event.TS,
			Status:     string(types.PositionOpen),
		}
		if found {
			rec.SellPrice = existing.SellPrice
			rec.SellTS = existing.SellTS
		}
		return tx.Save(&rec).Error

	case types.EventSell:
		rec := positionRecord{
			Account:    event.Account,
			NftID:      event.NftID,
			GiftName:   event.GiftName,
			Model:      event.Model,
			Background: event.Background,
			SellPrice:  event.Price.StringFixed(2),
			SellTS:     event.TS,
			Status:     string(types.PositionClosed),
		}
		if found && existing.Status == string(types.PositionOpen) {
			rec.BuyPrice = existing.BuyPrice
			rec.BuyTS = existing.BuyTS
		} else {
			rec.BuyPrice = "0.00"
		}
		return tx.Save(&rec).Error
	}
	return fmt.Errorf("ledger: unknown event kind %q", event.Kind)
}

// GetBuyPrice returns the open (or most recent closed) position's buy
// price for (account,nft_id), or nil if no position exists.
func (l *Ledger) GetBuyPrice(account, nftID string) (*decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rec positionRecord
	err := l.db.Where("account = ? AND nft_id = ?", account, nftID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.LedgerError{Msg: "get buy price", Err: err}
	}
	price, err := decimal.NewFromString(rec.BuyPrice)
	if err != nil {
		return nil, &types.LedgerError{Msg: "parse buy price", Err: err}
	}
	return &price, nil
}

// GetProfitStats aggregates ledger activity since sinceTS, optionally
// scoped to one account.
func (l *Ledger) GetProfitStats(account string, sinceTS int64) (types.ProfitStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.db.Model(&eventRecord{}).Where("ts >= ?", sinceTS)
	if account != "" {
		q = q.Where("account = ?", account)
	}
	var events []eventRecord
	if err := q.Find(&events).Error; err != nil {
		return types.ProfitStats{}, &types.LedgerError{Msg: "get profit stats", Err: err}
	}

	stats := types.ProfitStats{}
	for _, e := range events {
		price, _ := decimal.NewFromString(e.Price)
		fee, _ := decimal.NewFromString(e.Fee)
		switch e.Kind {
		case string(types.EventBuy):
			stats.BuyCount++
			stats.TotalBuy = stats.TotalBuy.Add(price)
		case string(types.EventSell):
			stats.SellCount++
			stats.TotalSell = stats.TotalSell.Add(price)
		}
		stats.TotalFee = stats.TotalFee.Add(fee)
	}
	stats.NetProfit = stats.TotalSell.Sub(stats.TotalBuy).Sub(stats.TotalFee)

	pq := l.db.Model(&positionRecord{}).Where("status = ? AND sell_ts >= ?", string(types.PositionClosed), sinceTS)
	if account != "" {
		pq = pq.Where("account = ?", account)
	}
	var closed []positionRecord
	if err := pq.Find(&closed).Error; err != nil {
		return types.ProfitStats{}, &types.LedgerError{Msg: "get profit stats", Err: err}
	}
	for _, p := range closed {
		buy, _ := decimal.NewFromString(p.BuyPrice)
		sell, _ := decimal.NewFromString(p.SellPrice)
		stats.RealizedProfit = stats.RealizedProfit.Add(sell.Sub(buy))
	}
	return stats, nil
}

// GetRecentEvents returns up to limit events ordered by ts descending,
// optionally scoped to one account.
func (l *Ledger) GetRecentEvents(limit int, account string) ([]types.TradeEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.db.Order("ts DESC").Limit(limit)
	if account != "" {
		q = q.Where("account = ?", account)
	}
	var recs []eventRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, &types.LedgerError{Msg: "get recent events", Err: err}
	}

	out := make([]types.TradeEvent, 0, len(recs))
	for _, r := range recs {
		price, _ := decimal.NewFromString(r.Price)
		fee, _ := decimal.NewFromString(r.Fee)
		out = append(out, types.TradeEvent{
			Account:    r.Account,
			EventID:    r.EventID,
			Kind:       types.TradeEventKind(r.Kind),
			NftID:      r.NftID,
			GiftName:   r.GiftName,
			Model:      r.Model,
			Background: r.Background,
			Price:      price,
			Fee:        fee,
			TS:         r.TS,
		})
	}
	return out, nil
}

// GetOpenPositions returns up to limit open positions ordered by buy_ts
// descending, optionally scoped to one account.
func (l *Ledger) GetOpenPositions(limit int, account string) ([]types.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.db.Where("status = ?", string(types.PositionOpen)).Order("buy_ts DESC").Limit(limit)
	if account != "" {
		q = q.Where("account = ?", account)
	}
	var recs []positionRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, &types.LedgerError{Msg: "get open positions", Err: err}
	}

	out := make([]types.Position, 0, len(recs))
	for _, r := range recs {
		buy, _ := decimal.NewFromString(r.BuyPrice)
		sell, _ := decimal.NewFromString(r.SellPrice)
		out = append(out, types.Position{
			Account:    r.Account,
			NftID:      r.NftID,
			GiftName:   r.GiftName,
			Model:      r.Model,
			Background: r.Background,
			BuyPrice:   buy,
			BuyTS:      r.BuyTS,
			SellPrice:  sell,
			SellTS:     r.SellTS,
			Status:     types.PositionStatus(r.Status),
		})
	}
	return out, nil
}
