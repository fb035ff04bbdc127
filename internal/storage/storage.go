package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound возвращается, когда запись отсутствует или принадлежит другому пользователю
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser возвращается при повторной регистрации email
	ErrDuplicateUser = errors.New("user already exists")
)

// Storage управляет базой данных дашборда
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// New создает новый экземпляр Storage и применяет схему.
// Внешние ключи в sqlite по умолчанию выключены, без прагмы все
// ON DELETE CASCADE/SET NULL в схеме не работали бы
func New(dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	storage := &Storage{
		db:     db,
		logger: logger,
	}

	if err := storage.init(); err != nil {
		return nil, err
	}

	return storage, nil
}

// init инициализирует таблицы БД
func (s *Storage) init() error {
	migrationSQL := `
-- Quant Dashboard Database Schema

-- Пользователи
CREATE TABLE if NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    NAME TEXT NOT NULL,
    avatar_url TEXT,
    timezone TEXT NOT NULL DEFAULT 'UTC',
    theme TEXT NOT NULL DEFAULT 'dark',
    language TEXT NOT NULL DEFAULT 'en',
    currency TEXT NOT NULL DEFAULT 'USD',
    date_format TEXT NOT NULL DEFAULT 'MM/DD/YYYY',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_login DATETIME
);

CREATE INDEX if NOT EXISTS idx_users_email ON users(email);

-- Предпочтения пользователя (уведомления, активы по умолчанию)
CREATE TABLE if NOT EXISTS user_preferences (
    user_id INTEGER PRIMARY KEY,
    default_assets TEXT NOT NULL DEFAULT '[]',
    notification_backtest_complete INTEGER NOT NULL DEFAULT 1,
    notification_market_alerts INTEGER NOT NULL DEFAULT 1,
    notification_system_updates INTEGER NOT NULL DEFAULT 0,
    notification_weekly_reports INTEGER NOT NULL DEFAULT 1,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

-- Стратегии
CREATE TABLE if NOT EXISTS strategies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    NAME TEXT NOT NULL,
    TYPE TEXT NOT NULL,
    description TEXT,
    parameters TEXT NOT NULL DEFAULT '{}',
    status TEXT NOT NULL DEFAULT 'draft',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    last_run DATETIME,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX if NOT EXISTS idx_strategies_user ON strategies(user_id);
CREATE INDEX if NOT EXISTS idx_strategies_updated ON strategies(updated_at DESC);

-- Бэктесты
CREATE TABLE if NOT EXISTS backtests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    strategy_id INTEGER NOT NULL,
    NAME TEXT NOT NULL,
    asset TEXT NOT NULL,
    start_date DATETIME NOT NULL,
    end_date DATETIME NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    total_return REAL,
    sharpe_ratio REAL,
    max_drawdown REAL,
    win_rate REAL,
    total_trades INTEGER,
    parameters TEXT,
    error_message TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY(strategy_id) REFERENCES strategies(id) ON DELETE CASCADE
);

CREATE INDEX if NOT EXISTS idx_backtests_user ON backtests(user_id);
CREATE INDEX if NOT EXISTS idx_backtests_created ON backtests(created_at DESC);
CREATE INDEX if NOT EXISTS idx_backtests_status ON backtests(status);

-- Сделки
CREATE TABLE if NOT EXISTS trades (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    backtest_id INTEGER,
    strategy_id INTEGER,
    symbol TEXT NOT NULL,
    ACTION TEXT NOT NULL,
    quantity REAL NOT NULL,
    price REAL NOT NULL,
    TIMESTAMP DATETIME NOT NULL,
    pnl REAL,
    commission REAL,
    is_live INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
    FOREIGN KEY(backtest_id) REFERENCES backtests(id) ON DELETE SET NULL,
    FOREIGN KEY(strategy_id) REFERENCES strategies(id) ON DELETE SET NULL
);

CREATE INDEX if NOT EXISTS idx_trades_user ON trades(user_id);
CREATE INDEX if NOT EXISTS idx_trades_timestamp ON trades(TIMESTAMP DESC);
CREATE INDEX if NOT EXISTS idx_trades_symbol ON trades(symbol);

-- Уведомления
CREATE TABLE if NOT EXISTS alerts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    TYPE TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    DATA TEXT,
    is_read INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX if NOT EXISTS idx_alerts_user ON alerts(user_id);
CREATE INDEX if NOT EXISTS idx_alerts_created ON alerts(created_at DESC);
CREATE INDEX if NOT EXISTS idx_alerts_unread ON alerts(user_id, is_read);

-- Подписки на уведомления
CREATE TABLE if NOT EXISTS alert_subscriptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    symbol TEXT NOT NULL,
    alert_type TEXT NOT NULL,
    conditions TEXT NOT NULL DEFAULT '{}',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX if NOT EXISTS idx_alert_subscriptions_user ON alert_subscriptions(user_id);
CREATE INDEX if NOT EXISTS idx_alert_subscriptions_active ON alert_subscriptions(is_active);

-- Рыночные данные (дневные свечи)
CREATE TABLE if NOT EXISTS market_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol TEXT NOT NULL,
    DATE DATETIME NOT NULL,
    open_price REAL,
    high_price REAL,
    low_price REAL,
    close_price REAL,
    volume INTEGER,
    adjusted_close REAL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(symbol, DATE)
);

CREATE INDEX if NOT EXISTS idx_market_data_symbol_date ON market_data(symbol, DATE);
`

	_, err := s.db.Exec(migrationSQL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	s.logger.Info("✅ Database initialized")

	return nil
}

// Close закрывает соединение с БД
func (s *Storage) Close() error {
	return s.db.Close()
}
