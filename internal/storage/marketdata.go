package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quantdash/internal/models"
)

// GetMarketData возвращает свечи по символу за период, по возрастанию даты
func (s *Storage) GetMarketData(ctx context.Context, symbol string, startDate, endDate time.Time) ([]models.MarketData, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, DATE, open_price, high_price, low_price, close_price, volume, adjusted_close, created_at
		FROM market_data
		WHERE symbol = ? AND DATE BETWEEN ? AND ?
		ORDER BY DATE ASC
	`, symbol, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var data []models.MarketData
	for rows.Next() {
		var md models.MarketData

		err := rows.Scan(&md.ID, &md.Symbol, &md.Date, &md.OpenPrice, &md.HighPrice,
			&md.LowPrice, &md.ClosePrice, &md.Volume, &md.AdjustedClose, &md.CreatedAt)
		if err != nil {
			continue
		}

		data = append(data, md)
	}

	return data, rows.Err()
}

// GetLatestMarketData возвращает последнюю свечу по символу
func (s *Storage) GetLatestMarketData(ctx context.Context, symbol string) (*models.MarketData, error) {
	var md models.MarketData

	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, DATE, open_price, high_price, low_price, close_price, volume, adjusted_close, created_at
		FROM market_data
		WHERE symbol = ?
		ORDER BY DATE DESC
		LIMIT 1
	`, symbol).Scan(&md.ID, &md.Symbol, &md.Date, &md.OpenPrice, &md.HighPrice,
		&md.LowPrice, &md.ClosePrice, &md.Volume, &md.AdjustedClose, &md.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &md, nil
}

// UpsertMarketData вставляет или обновляет свечу (уникальность по symbol+date)
func (s *Storage) UpsertMarketData(ctx context.Context, md models.MarketData) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_data (symbol, date, open_price, high_price, low_price, close_price, volume, adjusted_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume,
			adjusted_close = excluded.adjusted_close
	`, md.Symbol, md.Date, md.OpenPrice, md.HighPrice, md.LowPrice, md.ClosePrice, md.Volume, md.AdjustedClose)
	if err != nil {
		return fmt.Errorf("failed to upsert market data: %w", err)
	}

	return nil
}

// BulkUpsertMarketData вставляет пакет свечей в одной транзакции
func (s *Storage) BulkUpsertMarketData(ctx context.Context, data []models.MarketData) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO market_data (symbol, date, open_price, high_price, low_price, close_price, volume, adjusted_close)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			volume = excluded.volume,
			adjusted_close = excluded.adjusted_close
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, md := range data {
		_, err := stmt.ExecContext(ctx, md.Symbol, md.Date, md.OpenPrice, md.HighPrice,
			md.LowPrice, md.ClosePrice, md.Volume, md.AdjustedClose)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert market data: %w", err)
		}

		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}
