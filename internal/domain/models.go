package domain

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatKind представляет тип чата Telegram.
type ChatKind string

const (
	ChatKindPrivate    ChatKind = "private"
	ChatKindGroup      ChatKind = "group"
	ChatKindSupergroup ChatKind = "supergroup"
	ChatKindChannel    ChatKind = "channel"
)

// IsGroup сообщает, является ли чат группой или супергруппой.
func (k ChatKind) IsGroup() bool {
	return k == ChatKindGroup || k == ChatKindSupergroup
}

// InboundKind определяет вариант входящего обновления после классификации.
type InboundKind int

const (
	// InboundUnsupported — обновление без текстового сообщения
	// (отредактированное сообщение, callback и т.д.). Игнорируется.
	InboundUnsupported InboundKind = iota
	// InboundCommand — сообщение, начинающееся с маркера команды.
	InboundCommand
	// InboundPlain — обычное сообщение, кандидат на пересылку.
	InboundPlain
)

// Inbound — классифицированное входящее обновление.
// Классификация выполняется один раз, на этапе декодирования,
// чтобы остальной код не работал с "сырой" структурой Update.
type Inbound struct {
	Kind      InboundKind
	ChatID    int64
	ChatKind  ChatKind
	ChatTitle string
	MessageID int
	IssuerID  int64 // идентификатор отправителя; 0, если неизвестен
	Text      string

	// Заполняются только для Kind == InboundCommand.
	Command string // имя команды без маркера и суффикса @botname
	Args    []string
}

// Destination — зарегистрированный чат-получатель пересылаемых сообщений.
// Идентичность определяется числовым ChatID; метаданные опциональны.
type Destination struct {
	ChatID int64    `json:"chat_id"`
	Title  string   `json:"title,omitempty"`
	Kind   ChatKind `json:"kind,omitempty"`
}

// Delivery — результат одной попытки доставки в один чат-получатель.
type Delivery struct {
	ChatID int64
	Err    error
}

// Classify преобразует tgbotapi.Update в теговую модель Inbound.
// botName используется для отрезания суффикса "@botname" у команд,
// адресованных боту в группе.
func Classify(update *tgbotapi.Update, botName string) Inbound {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return Inbound{Kind: InboundUnsupported}
	}

	in := Inbound{
		ChatID:    msg.Chat.ID,
		ChatKind:  ChatKind(msg.Chat.Type),
		ChatTitle: msg.Chat.Title,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.From != nil {
		in.IssuerID = msg.From.ID
	}

	if !strings.HasPrefix(msg.Text, "/") {
		in.Kind = InboundPlain
		return in
	}

	fields := strings.Fields(msg.Text)
	command := strings.TrimPrefix(fields[0], "/")
	// Команда в группе может быть адресована явно: /add_group@relay_bot.
	if at := strings.Index(command, "@"); at >= 0 {
		if botName != "" && command[at+1:] != botName {
			// Команда адресована другому боту, не реагируем.
			return Inbound{Kind: InboundUnsupported}
		}
		command = command[:at]
	}

	in.Kind = InboundCommand
	in.Command = command
	in.Args = fields[1:]
	return in
}
