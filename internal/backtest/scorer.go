package backtest

import (
	"context"
	"math/rand/v2"
	"time"

	"quantdash/internal/models"

	"github.com/shopspring/decimal"
)

// Scorer вычисляет метрики бэктеста и генерирует его сделки
type Scorer interface {
	Score(ctx context.Context, backtest *models.Backtest) (models.BacktestResult, []models.Trade, error)
}

// RandomScorer - симулятор вместо настоящего движка: метрики берутся из
// правдоподобных диапазонов, сделки - случайное блуждание цены по окну
// бэктеста. Продакшен движок подключается вместо него через интерфейс Scorer
type RandomScorer struct {
	StartPrice float64 // начальная цена симуляции, 0 = 100
}

func (s *RandomScorer) Score(_ context.Context, backtest *models.Backtest) (models.BacktestResult, []models.Trade, error) {
	result := models.BacktestResult{
		TotalReturn: rand.Float64()*30 - 5,    // -5% .. +25%
		SharpeRatio: rand.Float64()*3 + 0.5,   // 0.5 .. 3.5
		MaxDrawdown: -(rand.Float64()*15 + 2), // -2% .. -17%
		WinRate:     rand.Float64()*40 + 50,   // 50% .. 90%
		TotalTrades: rand.IntN(100) + 20,      // 20 .. 120
	}

	return result, s.simulateTrades(backtest, result), nil
}

// simulateTrades раскладывает сделки равномерно по окну бэктеста.
// Цены и PnL считаются через decimal и округляются до центов, чтобы в
// базе не оказывались хвосты двоичной арифметики
func (s *RandomScorer) simulateTrades(backtest *models.Backtest, result models.BacktestResult) []models.Trade {
	count := result.TotalTrades
	window := backtest.EndDate.Sub(backtest.StartDate)
	if window <= 0 {
		window = 24 * time.Hour
	}

	startPrice := s.StartPrice
	if startPrice == 0 {
		startPrice = 100
	}

	price := decimal.NewFromFloat(startPrice)
	step := window / time.Duration(count+1)

	trades := make([]models.Trade, 0, count)
	for i := 0; i < count; i++ {
		// Шаг цены до ±2%
		drift := decimal.NewFromFloat(1 + (rand.Float64()*0.04 - 0.02))
		price = price.Mul(drift).Round(2)

		action := "BUY"
		if i%2 == 1 {
			action = "SELL"
		}

		quantity := decimal.NewFromInt(int64(rand.IntN(90) + 10))
		priceF, _ := price.Float64()
		quantityF, _ := quantity.Float64()

		trade := models.Trade{
			Symbol:    backtest.Asset,
			Action:    action,
			Quantity:  quantityF,
			Price:     priceF,
			Timestamp: backtest.StartDate.Add(step * time.Duration(i+1)),
		}

		// PnL фиксируется на продаже
		if action == "SELL" {
			pnlPct := decimal.NewFromFloat(rand.Float64()*0.06 - 0.02)
			pnl, _ := price.Mul(quantity).Mul(pnlPct).Round(2).Float64()
			trade.PnL = &pnl
		}

		trades = append(trades, trade)
	}

	return trades
}
