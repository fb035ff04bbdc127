package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quantdash/internal/models"
)

// AlertFilter - фильтры выборки уведомлений
type AlertFilter struct {
	UnreadOnly bool
	Types      []string
	Limit      int
	Offset     int
}

// GetAlerts возвращает уведомления пользователя, свежие сверху
func (s *Storage) GetAlerts(ctx context.Context, userID int, filter AlertFilter) ([]models.Alert, error) {
	query := `
		SELECT id, user_id, TYPE, title, message, coalesce(DATA, ''), is_read, created_at
		FROM alerts
		WHERE user_id = ?`
	args := []any{userID}

	if filter.UnreadOnly {
		query += " AND is_read = 0"
	}

	if len(filter.Types) > 0 {
		query += " AND type IN (?" + strings.Repeat(", ?", len(filter.Types)-1) + ")"
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}

	query += " ORDER BY created_at DESC"

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

	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		var data string
		var isRead int

		err := rows.Scan(&alert.ID, &alert.UserID, &alert.Type, &alert.Title, &alert.Message,
			&data, &isRead, &alert.CreatedAt)
		if err != nil {
			continue
		}

		if data != "" {
			alert.Data = []byte(data)
		}

		alert.IsRead = isRead == 1
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// CreateAlert создает уведомление
func (s *Storage) CreateAlert(ctx context.Context, alert models.Alert) (int, error) {
	var data any
	if alert.Data != nil {
		data = string(alert.Data)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (user_id, type, title, message, data, is_read)
		VALUES (?, ?, ?, ?, ?, ?)
	`, alert.UserID, alert.Type, alert.Title, alert.Message, data, boolToInt(alert.IsRead))
	if err != nil {
		return 0, fmt.Errorf("failed to create alert: %w", err)
	}

	id, _ := result.LastInsertId()

	return int(id), nil
}

// MarkAlertRead помечает уведомление прочитанным
func (s *Storage) MarkAlertRead(ctx context.Context, userID, id int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAllAlertsRead помечает все уведомления пользователя прочитанными
func (s *Storage) MarkAllAlertsRead(ctx context.Context, userID int) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1 WHERE user_id = ? AND is_read = 0
	`, userID)
	if err != nil {
		return 0, err
	}

	rows, _ := result.RowsAffected()

	return int(rows), nil
}

// HasUnreadAlert проверяет, есть ли непрочитанное уведомление данного типа по символу.
// Используется evaluator'ом, чтобы не дублировать срабатывания подписки.
func (s *Storage) HasUnreadAlert(ctx context.Context, userID int, alertType, symbol string) (bool, error) {
	var count int

	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM alerts
		WHERE user_id = ? AND type = ? AND is_read = 0 AND title LIKE ?
	`, userID, alertType, "%"+symbol+"%").Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// GetAlertSubscriptions возвращает подписки пользователя
func (s *Storage) GetAlertSubscriptions(ctx context.Context, userID int) ([]models.AlertSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, alert_type, conditions, is_active, created_at
		FROM alert_subscriptions
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// GetActiveSubscriptions возвращает все активные подписки (для evaluator'а)
func (s *Storage) GetActiveSubscriptions(ctx context.Context) ([]models.AlertSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, alert_type, conditions, is_active, created_at
		FROM alert_subscriptions
		WHERE is_active = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func scanSubscriptions(rows *sql.Rows) ([]models.AlertSubscription, error) {
	var subs []models.AlertSubscription
	for rows.Next() {
		var sub models.AlertSubscription
		var conditions string
		var isActive int

		err := rows.Scan(&sub.ID, &sub.UserID, &sub.Symbol, &sub.AlertType,
			&conditions, &isActive, &sub.CreatedAt)
		if err != nil {
			continue
		}

		sub.Conditions = []byte(conditions)
		sub.IsActive = isActive == 1
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// CreateAlertSubscription создает подписку
func (s *Storage) CreateAlertSubscription(ctx context.Context, sub models.AlertSubscription) (int, error) {
	conditions := string(sub.Conditions)
	if conditions == "" {
		conditions = "{}"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_subscriptions (user_id, symbol, alert_type, conditions, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, sub.UserID, sub.Symbol, sub.AlertType, conditions, boolToInt(sub.IsActive))
	if err != nil {
		return 0, fmt.Errorf("failed to create alert subscription: %w", err)
	}

	id, _ := result.LastInsertId()

	return int(id), nil
}

// UpdateAlertSubscription обновляет условия или активность подписки
func (s *Storage) UpdateAlertSubscription(ctx context.Context, userID, id int, sub models.AlertSubscription) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alert_subscriptions
		SET symbol = ?, alert_type = ?, conditions = ?, is_active = ?
		WHERE id = ? AND user_id = ?
	`, sub.Symbol, sub.AlertType, string(sub.Conditions), boolToInt(sub.IsActive), id, userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAlertSubscription удаляет подписку
func (s *Storage) DeleteAlertSubscription(ctx context.Context, userID, id int) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM alert_subscriptions WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
