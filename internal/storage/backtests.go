package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quantdash/internal/models"
)

const backtestColumns = `id, user_id, strategy_id, NAME, asset, start_date, end_date, status,
       total_return, sharpe_ratio, max_drawdown, win_rate, total_trades,
       coalesce(parameters, ''), coalesce(error_message, ''), created_at, completed_at`

func scanBacktest(scan func(dest ...any) error) (models.Backtest, error) {
	var bt models.Backtest
	var params string

	err := scan(&bt.ID, &bt.UserID, &bt.StrategyID, &bt.Name, &bt.Asset, &bt.StartDate, &bt.EndDate, &bt.Status,
		&bt.TotalReturn, &bt.SharpeRatio, &bt.MaxDrawdown, &bt.WinRate, &bt.TotalTrades,
		&params, &bt.ErrorMessage, &bt.CreatedAt, &bt.CompletedAt)
	if err != nil {
		return models.Backtest{}, err
	}

	if params != "" {
		bt.Parameters = []byte(params)
	}

	return bt, nil
}

// GetBacktests возвращает бэктесты пользователя, свежие сверху
func (s *Storage) GetBacktests(ctx context.Context, userID int) ([]models.Backtest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+backtestColumns+`
		FROM backtests
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var backtests []models.Backtest
	for rows.Next() {
		bt, err := scanBacktest(rows.Scan)
		if err != nil {
			continue
		}

		backtests = append(backtests, bt)
	}

	return backtests, rows.Err()
}

// GetBacktest получает бэктест пользователя по ID
func (s *Storage) GetBacktest(ctx context.Context, userID, id int) (*models.Backtest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+backtestColumns+`
		FROM backtests
		WHERE id = ? AND user_id = ?
	`, id, userID)

	bt, err := scanBacktest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &bt, nil
}

// CreateBacktest создает новый бэктест в статусе pending
func (s *Storage) CreateBacktest(ctx context.Context, bt models.Backtest) (*models.Backtest, error) {
	var params any
	if bt.Parameters != nil {
		params = string(bt.Parameters)
	}

	status := bt.Status
	if status == "" {
		status = "pending"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO backtests (user_id, strategy_id, name, asset, start_date, end_date, status, parameters)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, bt.UserID, bt.StrategyID, bt.Name, bt.Asset, bt.StartDate, bt.EndDate, status, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create backtest: %w", err)
	}

	id, _ := result.LastInsertId()

	return s.GetBacktest(ctx, bt.UserID, int(id))
}

// UpdateBacktestStatus переводит бэктест в новый статус и записывает метрики
func (s *Storage) UpdateBacktestStatus(ctx context.Context, userID, id int, status string, result *models.BacktestResult, errorMsg string) error {
	var res sql.Result
	var err error

	// Терминальные статусы фиксируют completed_at
	terminal := status == "completed" || status == "failed"

	switch {
	case result != nil:
		res, err = s.db.ExecContext(ctx, `
			UPDATE backtests
			SET status = ?, total_return = ?, sharpe_ratio = ?, max_drawdown = ?,
			    win_rate = ?, total_trades = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
			WHERE id = ? AND user_id = ?
		`, status, result.TotalReturn, result.SharpeRatio, result.MaxDrawdown,
			result.WinRate, result.TotalTrades, errorMsg, id, userID)
	case terminal:
		res, err = s.db.ExecContext(ctx, `
			UPDATE backtests
			SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
			WHERE id = ? AND user_id = ?
		`, status, errorMsg, id, userID)
	default:
		res, err = s.db.ExecContext(ctx, `
			UPDATE backtests
			SET status = ?
			WHERE id = ? AND user_id = ?
		`, status, id, userID)
	}

	if err != nil {
		return fmt.Errorf("failed to update backtest status: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteBacktest удаляет бэктест пользователя
func (s *Storage) DeleteBacktest(ctx context.Context, userID, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM backtests WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetBacktestSummary возвращает сводную статистику по бэктестам пользователя
func (s *Storage) GetBacktestSummary(ctx context.Context, userID int) (*models.BacktestSummary, error) {
	var summary models.BacktestSummary
	var avgReturn, bestSharpe, successRate sql.NullFloat64

	err := s.db.QueryRowContext(ctx, `
		SELECT count(*),
		       avg(total_return),
		       max(sharpe_ratio),
		       CASE WHEN count(*) > 0
		            THEN cast(sum(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) / count(*) * 100
		            ELSE 0 END
		FROM backtests
		WHERE user_id = ?
	`, userID).Scan(&summary.TotalBacktests, &avgReturn, &bestSharpe, &successRate)
	if err != nil {
		return nil, err
	}

	summary.AvgReturn = avgReturn.Float64
	summary.BestSharpe = bestSharpe.Float64
	summary.SuccessRate = successRate.Float64

	return &summary, nil
}
