package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quantdash/internal/alerts"
	"quantdash/internal/api"
	"quantdash/internal/auth"
	"quantdash/internal/backtest"
	"quantdash/internal/config"
	"quantdash/internal/marketcontext"
	"quantdash/internal/storage"

	"github.com/lmittmann/tint"
)

func main() {
	// Конфигурация slog для вывода в файл и stdout
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}
	defer logFile.Close()

	// Pretty handler для stdout с цветами
	prettyHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen, // "3:04PM"
		AddSource:  false,
		NoColor:    false,
	})

	// Обычный текстовый handler для файла
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	// Мультиплексируем логи в оба handler'а
	logger := slog.New(&multiHandler{
		handlers: []slog.Handler{prettyHandler, fileHandler},
	})

	logger.Info("=== Quant Trading Dashboard ===")

	cfg := config.Load(logger)

	if !cfg.SecureCookies {
		logger.Warn("⚠️  SECURE_COOKIES disabled - session cookies will be sent over plain HTTP")
	}

	// Инициализация БД
	st, err := storage.New(cfg.DBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	// Инициализация auth сервиса
	authService := auth.NewService(st, cfg.CookieMaxAge, cfg.SecureCookies, logger)

	if cfg.SeedOnStart {
		hash, err := authService.HashPassword("demo123")
		if err != nil {
			logger.Error("Failed to hash demo password", slog.Any("error", err))
			os.Exit(1)
		}

		if _, err := st.Seed(context.Background(), hash); err != nil {
			logger.Error("Failed to seed database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// WebSocket хаб и фоновые сервисы
	hub := api.NewHub(logger)
	runner := backtest.NewRunner(st, &backtest.RandomScorer{}, hub, cfg.BacktestDelay, logger)
	market := marketcontext.NewProvider(cfg.RefreshDelay, logger)
	evaluator := alerts.NewEvaluator(st, hub, cfg.AlertInterval, logger)

	evalCtx, stopEvaluator := context.WithCancel(context.Background())
	go evaluator.Run(evalCtx)

	// Инициализация API handler
	apiHandler := api.New(st, authService, runner, market, hub, logger)

	// Настройка роутинга
	router := apiHandler.SetupRouter(cfg.WebDir)

	// HTTP сервер
	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("🚀 Server starting...", slog.String("address", cfg.Address))
		logger.Info(fmt.Sprintf("📡 API available at http://localhost%s/api", cfg.Address))
		logger.Info(fmt.Sprintf("🏥 Health check at http://localhost%s/health", cfg.Address))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	stopEvaluator()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	logger.Info("✅ Server stopped")
}

func logFilePath() string {
	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		return path
	}

	return "quantdash.log"
}

// multiHandler отправляет логи в несколько handlers одновременно
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, record); err != nil {
			return err
		}
	}

	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}

	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}

	return &multiHandler{handlers: handlers}
}
