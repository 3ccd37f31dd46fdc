package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"refpoints-bot/internal/bot"
	"refpoints-bot/internal/config"
	"refpoints-bot/internal/ledger"
	"refpoints-bot/internal/metrics"
	"refpoints-bot/internal/storage"
	"refpoints-bot/internal/storage/redis"
	"refpoints-bot/pkg/logger"

	"go.uber.org/zap"
)

// ENTRY POINT

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Инициализация логгера
	zapLogger, err := logger.New(cfg.LogProduction)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Обработка сигналов завершения
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	// Хранилище состояний диалога: Redis, если задан адрес, иначе память процесса
	var state storage.StateStore = storage.NewMemoryStateStore(cfg.StateTTL)
	if cfg.RedisAddr != "" {
		redisStorage, err := redis.New(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			TTL:            cfg.StateTTL,
			ConnectTimeout: cfg.ConnectTimeout,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to init Redis state storage", zap.Error(err))
		}
		defer redisStorage.Close()
		state = redisStorage
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, m, zapLogger); err != nil {
				zapLogger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	botAPI, err := bot.Connect(ctx, cfg.TelegramToken, cfg.BotDebug, cfg.ConnectTimeout, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	tgBot := bot.New(
		botAPI,
		botAPI.Self.UserName,
		ledger.New(cfg.StartingPoints, cfg.PointsPerRefer),
		state,
		m,
		zapLogger,
		cfg,
	)

	// Запуск бота
	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}
