// Package server предоставляет HTTP-поверхность сервиса: прием вебхука
// Telegram и проверку работоспособности для хостинг-платформы.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/pkg/config"
)

// Enqueuer передает декодированное обновление в полосу обработки.
// Реализуется dispatch.Dispatcher.
type Enqueuer interface {
	Enqueue(update *tgbotapi.Update) bool
}

// Server представляет HTTP-сервер сервиса пересылки.
type Server struct {
	HTTPServer *http.Server
	dispatcher Enqueuer
	logger     *slog.Logger
}

// New создает новый экземпляр Server.
func New(cfg *config.Config, dispatcher Enqueuer, logger *slog.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		logger:     logger,
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.Recoverer)

	// Проверка работоспособности: используется liveness-пробой хостинга.
	chiRouter.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Точка доставки обновлений Telegram. Ответ возвращается сразу после
	// постановки в очередь, независимо от результата пересылки.
	chiRouter.Post("/webhook", s.handleWebhook)

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// handleWebhook декодирует тело вебхука и передает обновление диспетчеру.
// Некорректное тело — ошибка клиента, дальнейшей обработки нет.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("failed to decode webhook body", slog.String("error", err.Error()))
		http.Error(w, "некорректное тело запроса", http.StatusBadRequest)
		return
	}

	s.dispatcher.Enqueue(&update)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ListenAndServe запускает HTTP-сервер.
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.HTTPServer.Shutdown(ctx)
}
