package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quantdash/internal/models"
)

// Seed наполняет пустую базу демо-данными: пользователь, стратегии,
// рыночные данные, сделки и уведомления. Повторный вызов ничего не делает.
func (s *Storage) Seed(ctx context.Context, demoPasswordHash string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM users").Scan(&count); err != nil {
		return false, err
	}

	if count > 0 {
		s.logger.Info("Database already seeded")
		return false, nil
	}

	user, err := s.CreateUser(ctx, NewUser{
		Email:        "demo@example.com",
		PasswordHash: demoPasswordHash,
		Name:         "Demo User",
		Timezone:     "UTC-5",
		Theme:        "dark",
		Language:     "en",
		Currency:     "USD",
		DateFormat:   "MM/DD/YYYY",
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed user: %w", err)
	}

	assets := []string{"AAPL", "TSLA", "MSFT", "GOOGL"}
	if err := s.UpdateUserSettings(ctx, user.ID, models.UserSettingsUpdate{DefaultAssets: &assets}); err != nil {
		return false, err
	}

	strategies := []models.Strategy{
		{
			UserID:      user.ID,
			Name:        "Momentum Breakout",
			Type:        "Momentum",
			Description: "Identifies strong momentum breakouts with volume confirmation",
			Parameters:  []byte(`{"rsiThreshold":[30,70],"maWindow":20,"volumeMultiplier":1.5,"stopLoss":0.05}`),
			Status:      "active",
		},
		{
			UserID:      user.ID,
			Name:        "Mean Reversion RSI",
			Type:        "Mean Reversion",
			Description: "RSI-based mean reversion strategy with dynamic thresholds",
			Parameters:  []byte(`{"rsiLow":30,"rsiHigh":70,"lookbackPeriod":14,"stopLoss":0.03}`),
			Status:      "active",
		},
		{
			UserID:      user.ID,
			Name:        "Bollinger Bands",
			Type:        "Mean Reversion",
			Description: "Bollinger Bands squeeze and expansion strategy",
			Parameters:  []byte(`{"period":20,"stdDev":2,"entryThreshold":0.05,"exitThreshold":0.02}`),
			Status:      "draft",
		},
	}

	var firstStrategyID int
	for i, st := range strategies {
		created, err := s.CreateStrategy(ctx, st)
		if err != nil {
			return false, fmt.Errorf("failed to seed strategy: %w", err)
		}

		if i == 0 {
			firstStrategyID = created.ID
		}
	}

	// Полгода дневных свечей по каждому активу
	prices := map[string]float64{"AAPL": 175, "TSLA": 245, "MSFT": 370, "GOOGL": 140}
	now := time.Now().UTC().Truncate(24 * time.Hour)

	var candles []models.MarketData
	for symbol, base := range prices {
		price := base
		for d := 180; d > 0; d-- {
			// Детерминированный дрейф вместо случайного: сид должен быть воспроизводимым
			drift := float64((d*7+len(symbol)*13)%21-10) / 10
			price += drift

			open := price - 0.5
			high := price + 1.2
			low := price - 1.4
			closing := price
			volume := int64(1_000_000 + (d*31337)%4_000_000)
			adjusted := closing

			candles = append(candles, models.MarketData{
				Symbol:        symbol,
				Date:          now.AddDate(0, 0, -d),
				OpenPrice:     &open,
				HighPrice:     &high,
				LowPrice:      &low,
				ClosePrice:    &closing,
				Volume:        &volume,
				AdjustedClose: &adjusted,
			})
		}
	}

	if _, err := s.BulkUpsertMarketData(ctx, candles); err != nil {
		return false, err
	}

	// Несколько сделок под первую стратегию
	pnls := []float64{124.50, -38.20, 215.75, 58.10, -91.40}
	trades := make([]models.Trade, 0, len(pnls))
	for i, pnl := range pnls {
		p := pnl
		action := "BUY"
		if i%2 == 1 {
			action = "SELL"
		}

		trades = append(trades, models.Trade{
			UserID:     user.ID,
			StrategyID: &firstStrategyID,
			Symbol:     assets[i%len(assets)],
			Action:     action,
			Quantity:   float64(10 + i*5),
			Price:      prices[assets[i%len(assets)]],
			Timestamp:  now.AddDate(0, 0, -i-1),
			PnL:        &p,
			IsLive:     false,
		})
	}

	if _, err := s.BulkInsertTrades(ctx, trades); err != nil {
		return false, err
	}

	subscriptions := []models.AlertSubscription{
		{UserID: user.ID, Symbol: "AAPL", AlertType: "price_threshold", Conditions: []byte(`{"above":180,"below":160}`), IsActive: true},
		{UserID: user.ID, Symbol: "TSLA", AlertType: "sentiment_flip", Conditions: []byte(`{"threshold":0.3}`), IsActive: true},
		{UserID: user.ID, Symbol: "GOOGL", AlertType: "volume_spike", Conditions: []byte(`{"multiplier":2.5}`), IsActive: false},
	}

	for _, sub := range subscriptions {
		if _, err := s.CreateAlertSubscription(ctx, sub); err != nil {
			return false, err
		}
	}

	_, err = s.CreateAlert(ctx, models.Alert{
		UserID:  user.ID,
		Type:    "system",
		Title:   "Welcome to the dashboard",
		Message: "Your demo account is ready. Run a backtest to get started.",
		IsRead:  false,
	})
	if err != nil {
		return false, err
	}

	s.logger.Info("✅ Database seeded",
		slog.Int("user_id", user.ID),
		slog.Int("candles", len(candles)),
		slog.Int("trades", len(trades)))

	return true, nil
}
