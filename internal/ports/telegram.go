package ports

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAPI определяет используемое подмножество клиента Telegram Bot API.
// Ему удовлетворяет *tgbotapi.BotAPI; в тестах подставляется фейк.
type TelegramAPI interface {
	// Send отправляет любой Chattable (сообщение, форвард и т.д.).
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	// Request выполняет произвольный запрос к Bot API
	// (copyMessage, setWebhook и прочие вызовы без тела-сообщения).
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	// GetChat запрашивает метаданные чата. Ошибки допустимы:
	// чат может быть недоступен боту.
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}
