package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/auth"
	"telegram-relay-bot/internal/bot"
	"telegram-relay-bot/internal/cache"
	"telegram-relay-bot/internal/dispatch"
	"telegram-relay-bot/internal/log"
	"telegram-relay-bot/internal/pkg/config"
	"telegram-relay-bot/internal/registry"
	"telegram-relay-bot/internal/relay"
	"telegram-relay-bot/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Инициализация логгера с маскировкой токенов
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := log.NewMaskedLogger(handler)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Клиент Telegram Bot API
	_ = tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))})

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("failed to create bot api: %w", err)
	}
	slog.Info("authorized on account", slog.String("username", api.Self.UserName))

	// 5. Загрузка реестра получателей и администраторов
	store, err := registry.Load(cfg.Storage.Dir, cfg.Bot.SuperAdmins, cfg.Relay.SeedSets)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	// 6. Сборка компонентов
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	policy := auth.NewPolicy(cfg.Bot.SuperAdmins)
	targets := bot.NewTargetStore()

	chatCache := cache.NewChatCache(time.Duration(cfg.Cache.TTLMinutes) * time.Minute)
	chatCache.StartCleanupTicker(appCtx, time.Hour)

	engine := relay.NewEngine(
		api,
		store,
		policy,
		targets,
		relay.Mode(cfg.Relay.Mode),
		relay.Fidelity(cfg.Relay.Fidelity),
		logger.With(slog.String("component", "relay")),
	)

	b := bot.New(
		api,
		store,
		policy,
		targets,
		chatCache,
		engine,
		bot.AdminManage(cfg.Relay.AdminManage),
		api.Self.UserName,
		logger.With(slog.String("component", "bot")),
	)

	dispatcher := dispatch.New(b, cfg.Dispatch.QueueSize, logger.With(slog.String("component", "dispatch")))
	srv := server.New(cfg, dispatcher, logger.With(slog.String("component", "server")))

	// 7. Регистрация вебхука. Без нее обновления никогда не придут,
	// поэтому неудача фатальна.
	webhookURL := strings.TrimSuffix(cfg.Bot.WebhookURL, "/") + "/webhook"
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}
	slog.Info("webhook registered", slog.String("url", webhookURL))

	// 8. Запуск полосы обработки и HTTP-сервера
	go dispatcher.Run(appCtx)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 9. Ожидание сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	appCancel() // останавливает диспетчер и тикеры очистки

	slog.Info("stopped gracefully")
	return nil
}
