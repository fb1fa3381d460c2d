// Package dispatch реализует мост между HTTP-обработчиком вебхука и
// обработкой обновлений: ограниченную очередь с единственным потребителем.
// Эта единственная полоса выполнения сериализует все мутации реестра и все
// вызовы клиента Telegram, поэтому обработчикам не нужны блокировки.
package dispatch

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler обрабатывает одно декодированное обновление.
// Реализуется ботом.
type Handler interface {
	HandleUpdate(update *tgbotapi.Update)
}

// Dispatcher принимает обновления от HTTP-слоя и выполняет их строго
// по одному, в порядке поступления.
type Dispatcher struct {
	queue   chan *tgbotapi.Update
	handler Handler
	logger  *slog.Logger
}

// New создает диспетчер с очередью заданной емкости.
func New(handler Handler, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		queue:   make(chan *tgbotapi.Update, queueSize),
		handler: handler,
		logger:  logger,
	}
}

// Enqueue передает обновление в очередь обработки и сразу возвращается.
// HTTP-обработчик никогда не ждет завершения пересылки. При переполненной
// очереди обновление отбрасывается с записью в лог: контракт вебхука
// требует быстрого подтверждения, а семантика доставки — best-effort.
func (d *Dispatcher) Enqueue(update *tgbotapi.Update) bool {
	select {
	case d.queue <- update:
		return true
	default:
		d.logger.Warn("dispatch queue is full, dropping update", slog.Int("update_id", update.UpdateID))
		return false
	}
}

// Run запускает цикл потребителя. Обновления обрабатываются одно за другим,
// в порядке поступления; паника при обработке одного обновления
// локализуется и не останавливает цикл. Блокируется до отмены контекста.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopped")
			return
		case update := <-d.queue:
			d.process(update)
		}
	}
}

// process выполняет одно обновление с перехватом паники. HTTP-ответ уже
// отправлен, поэтому любая ошибка здесь терминальна только для этого
// обновления.
func (d *Dispatcher) process(update *tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while processing update",
				slog.Int("update_id", update.UpdateID),
				slog.Any("panic", r))
		}
	}()
	d.handler.HandleUpdate(update)
}
