package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quantdash/internal/models"
)

const strategyColumns = `id, user_id, NAME, TYPE, coalesce(description, ''),
       parameters, status, created_at, updated_at, last_run`

func scanStrategy(scan func(dest ...any) error) (models.Strategy, error) {
	var st models.Strategy
	var params string

	err := scan(&st.ID, &st.UserID, &st.Name, &st.Type, &st.Description,
		&params, &st.Status, &st.CreatedAt, &st.UpdatedAt, &st.LastRun)
	if err != nil {
		return models.Strategy{}, err
	}

	st.Parameters = []byte(params)

	return st, nil
}

// GetStrategies возвращает стратегии пользователя, свежие сверху
func (s *Storage) GetStrategies(ctx context.Context, userID int) ([]models.Strategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+strategyColumns+`
		FROM strategies
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []models.Strategy
	for rows.Next() {
		st, err := scanStrategy(rows.Scan)
		if err != nil {
			continue
		}

		strategies = append(strategies, st)
	}

	return strategies, rows.Err()
}

// GetStrategy получает стратегию пользователя по ID
func (s *Storage) GetStrategy(ctx context.Context, userID, id int) (*models.Strategy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+strategyColumns+`
		FROM strategies
		WHERE id = ? AND user_id = ?
	`, id, userID)

	st, err := scanStrategy(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &st, nil
}

// CreateStrategy создает новую стратегию
func (s *Storage) CreateStrategy(ctx context.Context, st models.Strategy) (*models.Strategy, error) {
	params := string(st.Parameters)
	if params == "" {
		params = "{}"
	}

	status := st.Status
	if status == "" {
		status = "draft"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (user_id, name, type, description, parameters, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, st.UserID, st.Name, st.Type, st.Description, params, status)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}

	id, _ := result.LastInsertId()

	return s.GetStrategy(ctx, st.UserID, int(id))
}

// UpdateStrategy применяет частичное обновление стратегии
func (s *Storage) UpdateStrategy(ctx context.Context, userID, id int, upd models.StrategyUpdate) (*models.Strategy, error) {
	fields := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}

	if upd.Name != nil {
		fields = append(fields, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Type != nil {
		fields = append(fields, "type = ?")
		args = append(args, *upd.Type)
	}
	if upd.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Parameters != nil {
		fields = append(fields, "parameters = ?")
		args = append(args, string(upd.Parameters))
	}
	if upd.Status != nil {
		fields = append(fields, "status = ?")
		args = append(args, *upd.Status)
	}

	args = append(args, id, userID)
	query := "UPDATE strategies SET " + strings.Join(fields, ", ") + " WHERE id = ? AND user_id = ?"

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update strategy: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetStrategy(ctx, userID, id)
}

// UpdateStrategyLastRun отмечает запуск стратегии
func (s *Storage) UpdateStrategyLastRun(ctx context.Context, userID, id int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE strategies
		SET last_run = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, id, userID)

	return err
}

// DeleteStrategy удаляет стратегию пользователя
func (s *Storage) DeleteStrategy(ctx context.Context, userID, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM strategies WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
