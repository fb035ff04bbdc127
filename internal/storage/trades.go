package storage

import (
	"context"
	"fmt"

	"quantdash/internal/models"

	"github.com/shopspring/decimal"
)

// TradeFilter - фильтры выборки сделок
type TradeFilter struct {
	Symbol     string
	BacktestID int
	IsLive     *bool
	Limit      int
	Offset     int
}

// GetTrades возвращает сделки пользователя с фильтрами и пагинацией
func (s *Storage) GetTrades(ctx context.Context, userID int, filter TradeFilter) ([]models.Trade, error) {
	query := `
		SELECT id, user_id, backtest_id, strategy_id, symbol, ACTION, quantity, price,
		       TIMESTAMP, pnl, commission, is_live, created_at
		FROM trades
		WHERE user_id = ?`
	args := []any{userID}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}

	if filter.BacktestID != 0 {
		query += " AND backtest_id = ?"
		args = append(args, filter.BacktestID)
	}

	if filter.IsLive != nil {
		query += " AND is_live = ?"
		args = append(args, boolToInt(*filter.IsLive))
	}

	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		var isLive int

		err := rows.Scan(&trade.ID, &trade.UserID, &trade.BacktestID, &trade.StrategyID,
			&trade.Symbol, &trade.Action, &trade.Quantity, &trade.Price,
			&trade.Timestamp, &trade.PnL, &trade.Commission, &isLive, &trade.CreatedAt)
		if err != nil {
			continue
		}

		trade.IsLive = isLive == 1
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// CreateTrade создает запись сделки
func (s *Storage) CreateTrade(ctx context.Context, trade models.Trade) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (user_id, backtest_id, strategy_id, symbol, action, quantity, price, timestamp, pnl, commission, is_live)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.UserID, trade.BacktestID, trade.StrategyID, trade.Symbol, trade.Action,
		trade.Quantity, trade.Price, trade.Timestamp, trade.PnL, trade.Commission, boolToInt(trade.IsLive))
	if err != nil {
		return 0, fmt.Errorf("failed to create trade: %w", err)
	}

	id, _ := result.LastInsertId()

	return int(id), nil
}

// BulkInsertTrades вставляет пакет сделок в одной транзакции
func (s *Storage) BulkInsertTrades(ctx context.Context, trades []models.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (user_id, backtest_id, strategy_id, symbol, action, quantity, price, timestamp, pnl, commission, is_live)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, trade := range trades {
		_, err := stmt.ExecContext(ctx, trade.UserID, trade.BacktestID, trade.StrategyID,
			trade.Symbol, trade.Action, trade.Quantity, trade.Price,
			trade.Timestamp, trade.PnL, trade.Commission, boolToInt(trade.IsLive))
		if err != nil {
			return 0, fmt.Errorf("failed to insert trade: %w", err)
		}

		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetTradeStats считает статистику по сделкам пользователя.
// PnL суммируется через decimal, чтобы не копить ошибку float64 на больших выборках.
func (s *Storage) GetTradeStats(ctx context.Context, userID int, filter TradeFilter) (*models.TradeStats, error) {
	filter.Limit = 0
	filter.Offset = 0

	trades, err := s.GetTrades(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	stats := &models.TradeStats{}
	totalPnL := decimal.Zero
	withPnL := 0
	wins := 0

	for _, trade := range trades {
		stats.TotalTrades++

		switch trade.Action {
		case "BUY":
			stats.BuyCount++
		case "SELL":
			stats.SellCount++
		}

		if trade.PnL == nil {
			continue
		}

		pnl := decimal.NewFromFloat(*trade.PnL)
		totalPnL = totalPnL.Add(pnl)
		withPnL++

		if pnl.IsPositive() {
			wins++
		}
	}

	stats.TotalPnL, _ = totalPnL.Float64()

	if withPnL > 0 {
		avg := totalPnL.Div(decimal.NewFromInt(int64(withPnL)))
		stats.AvgPnL, _ = avg.Float64()
		stats.WinRate = float64(wins) / float64(withPnL) * 100
	}

	return stats, nil
}
