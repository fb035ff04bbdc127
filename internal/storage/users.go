package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quantdash/internal/models"
)

// NewUser - данные для создания пользователя
type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Timezone     string
	Theme        string
	Language     string
	Currency     string
	DateFormat   string
}

const userColumns = `id, email, password_hash, NAME, coalesce(avatar_url, ''),
       timezone, theme, language, currency, date_format,
       is_active, created_at, updated_at, last_login`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var isActive int

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.AvatarURL,
		&user.Timezone, &user.Theme, &user.Language, &user.Currency, &user.DateFormat,
		&isActive, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	user.IsActive = isActive == 1

	return &user, nil
}

// CreateUser создает нового пользователя с предпочтениями по умолчанию
func (s *Storage) CreateUser(ctx context.Context, u NewUser) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, name, timezone, theme, language, currency, date_format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.Email, u.PasswordHash, u.Name, u.Timezone, u.Theme, u.Language, u.Currency, u.DateFormat)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, ErrDuplicateUser
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, _ := result.LastInsertId()

	// Заводим строку предпочтений сразу, чтобы settings всегда отдавали полный набор
	_, err = s.db.ExecContext(ctx, `INSERT INTO user_preferences (user_id) VALUES (?)`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create user preferences: %w", err)
	}

	s.logger.Info("✅ User created",
		slog.Int("user_id", int(id)),
		slog.String("email", u.Email))

	return s.GetUserByID(ctx, int(id))
}

// GetUserByEmail получает пользователя по email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?
	`, email)

	return scanUser(row)
}

// GetUserByID получает пользователя по ID
func (s *Storage) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = ?
	`, id)

	return scanUser(row)
}

// UpdateLastLogin обновляет время последнего входа
func (s *Storage) UpdateLastLogin(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET last_login = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)

	return err
}

// GetUserSettings возвращает настройки пользователя вместе с предпочтениями
func (s *Storage) GetUserSettings(ctx context.Context, userID int) (*models.UserSettings, error) {
	var settings models.UserSettings
	var assetsJSON string
	var backtestDone, marketAlerts, systemUpdates, weeklyReports int

	err := s.db.QueryRowContext(ctx, `
		SELECT u.timezone, u.theme, u.language, u.currency, u.date_format,
		       coalesce(up.default_assets, '[]'),
		       coalesce(up.notification_backtest_complete, 1),
		       coalesce(up.notification_market_alerts, 1),
		       coalesce(up.notification_system_updates, 0),
		       coalesce(up.notification_weekly_reports, 1)
		FROM users u
		LEFT JOIN user_preferences up ON u.id = up.user_id
		WHERE u.id = ?
	`, userID).Scan(&settings.Timezone, &settings.Theme, &settings.Language, &settings.Currency, &settings.DateFormat,
		&assetsJSON, &backtestDone, &marketAlerts, &systemUpdates, &weeklyReports)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	json.Unmarshal([]byte(assetsJSON), &settings.DefaultAssets)
	if settings.DefaultAssets == nil {
		settings.DefaultAssets = []string{}
	}

	settings.NotifyBacktestComplete = backtestDone == 1
	settings.NotifyMarketAlerts = marketAlerts == 1
	settings.NotifySystemUpdates = systemUpdates == 1
	settings.NotifyWeeklyReports = weeklyReports == 1

	return &settings, nil
}

// UpdateUserSettings применяет частичное обновление настроек и предпочтений
func (s *Storage) UpdateUserSettings(ctx context.Context, userID int, upd models.UserSettingsUpdate) error {
	userFields := []string{}
	userArgs := []any{}

	if upd.Timezone != nil {
		userFields = append(userFields, "timezone = ?")
		userArgs = append(userArgs, *upd.Timezone)
	}
	if upd.Theme != nil {
		userFields = append(userFields, "theme = ?")
		userArgs = append(userArgs, *upd.Theme)
	}
	if upd.Language != nil {
		userFields = append(userFields, "language = ?")
		userArgs = append(userArgs, *upd.Language)
	}
	if upd.Currency != nil {
		userFields = append(userFields, "currency = ?")
		userArgs = append(userArgs, *upd.Currency)
	}
	if upd.DateFormat != nil {
		userFields = append(userFields, "date_format = ?")
		userArgs = append(userArgs, *upd.DateFormat)
	}

	if len(userFields) > 0 {
		userFields = append(userFields, "updated_at = CURRENT_TIMESTAMP")
		userArgs = append(userArgs, userID)

		query := "UPDATE users SET " + strings.Join(userFields, ", ") + " WHERE id = ?"

		result, err := s.db.ExecContext(ctx, query, userArgs...)
		if err != nil {
			return fmt.Errorf("failed to update user settings: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return ErrNotFound
		}
	}

	prefFields := []string{}
	prefArgs := []any{}

	if upd.DefaultAssets != nil {
		assetsJSON, _ := json.Marshal(*upd.DefaultAssets)
		prefFields = append(prefFields, "default_assets = ?")
		prefArgs = append(prefArgs, string(assetsJSON))
	}
	if upd.NotifyBacktestComplete != nil {
		prefFields = append(prefFields, "notification_backtest_complete = ?")
		prefArgs = append(prefArgs, boolToInt(*upd.NotifyBacktestComplete))
	}
	if upd.NotifyMarketAlerts != nil {
		prefFields = append(prefFields, "notification_market_alerts = ?")
		prefArgs = append(prefArgs, boolToInt(*upd.NotifyMarketAlerts))
	}
	if upd.NotifySystemUpdates != nil {
		prefFields = append(prefFields, "notification_system_updates = ?")
		prefArgs = append(prefArgs, boolToInt(*upd.NotifySystemUpdates))
	}
	if upd.NotifyWeeklyReports != nil {
		prefFields = append(prefFields, "notification_weekly_reports = ?")
		prefArgs = append(prefArgs, boolToInt(*upd.NotifyWeeklyReports))
	}

	if len(prefFields) > 0 {
		// user_preferences создается вместе с пользователем, но подстрахуемся
		_, _ = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_preferences (user_id) VALUES (?)`, userID)

		prefArgs = append(prefArgs, userID)
		query := "UPDATE user_preferences SET " + strings.Join(prefFields, ", ") + " WHERE user_id = ?"

		if _, err := s.db.ExecContext(ctx, query, prefArgs...); err != nil {
			return fmt.Errorf("failed to update user preferences: %w", err)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
