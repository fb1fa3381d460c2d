// Package log содержит обвязку логирования: маскировку токена бота
// и адаптер slog для библиотеки go-telegram-bot-api.
package log

import (
	"context"
	"log/slog"
	"regexp"
)

// Токен Telegram-бота имеет вид botID:token и попадает в URL каждого
// запроса к Bot API, поэтому маскируем его во всех строковых значениях.
var telegramTokenRegex = regexp.MustCompile(`(\bbot\d+:[A-Za-z0-9_-]{35,})`)

// maskTokens заменяет найденные токены на маску.
func maskTokens(text string) string {
	return telegramTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
}

// TokenMaskerHandler — обертка slog.Handler, маскирующая токены в записях.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает новый обработчик с маскировкой токенов.
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{handler: handler}
}

// Enabled реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler. Запись пересобирается целиком,
// чтобы немаскированные значения не дошли до нижележащего обработчика.
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)})
		return true
	})
	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = slog.Attr{Key: attr.Key, Value: maskAttributeValue(attr.Value)}
	}
	return &TokenMaskerHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{handler: h.handler.WithGroup(name)}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов.
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		// Ошибки клиента Telegram содержат URL запроса вместе с токеном.
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, attr := range group {
			masked[i] = slog.Attr{Key: attr.Key, Value: maskAttributeValue(attr.Value)}
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}

// NewMaskedLogger создает slog.Logger с маскировкой токенов.
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}
