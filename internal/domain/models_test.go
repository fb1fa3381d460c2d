package domain

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func makeUpdate(chatID int64, chatType, text string, issuerID int64) *tgbotapi.Update {
	return &tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType, Title: "Чат"},
			From:      &tgbotapi.User{ID: issuerID},
			Text:      text,
		},
	}
}

func TestClassify(t *testing.T) {
	t.Run("plain message", func(t *testing.T) {
		in := Classify(makeUpdate(-100555, "supergroup", "hello", 42), "relay_bot")

		assert.Equal(t, InboundPlain, in.Kind)
		assert.Equal(t, int64(-100555), in.ChatID)
		assert.Equal(t, ChatKindSupergroup, in.ChatKind)
		assert.Equal(t, 77, in.MessageID)
		assert.Equal(t, int64(42), in.IssuerID)
		assert.Equal(t, "hello", in.Text)
	})

	t.Run("command with args", func(t *testing.T) {
		in := Classify(makeUpdate(1, "private", "/add_admin 1001", 42), "relay_bot")

		assert.Equal(t, InboundCommand, in.Kind)
		assert.Equal(t, "add_admin", in.Command)
		assert.Equal(t, []string{"1001"}, in.Args)
	})

	t.Run("command addressed to this bot", func(t *testing.T) {
		in := Classify(makeUpdate(-1, "group", "/add_group@relay_bot", 42), "relay_bot")

		assert.Equal(t, InboundCommand, in.Kind)
		assert.Equal(t, "add_group", in.Command)
	})

	t.Run("command addressed to another bot is ignored", func(t *testing.T) {
		in := Classify(makeUpdate(-1, "group", "/add_group@other_bot", 42), "relay_bot")

		assert.Equal(t, InboundUnsupported, in.Kind)
	})

	t.Run("update without message", func(t *testing.T) {
		in := Classify(&tgbotapi.Update{}, "relay_bot")

		assert.Equal(t, InboundUnsupported, in.Kind)
	})

	t.Run("message without sender keeps zero issuer", func(t *testing.T) {
		u := makeUpdate(-1, "group", "hi", 0)
		u.Message.From = nil
		in := Classify(u, "relay_bot")

		assert.Equal(t, InboundPlain, in.Kind)
		assert.Zero(t, in.IssuerID)
	})
}

func TestChatKindIsGroup(t *testing.T) {
	assert.True(t, ChatKindGroup.IsGroup())
	assert.True(t, ChatKindSupergroup.IsGroup())
	assert.False(t, ChatKindPrivate.IsGroup())
	assert.False(t, ChatKindChannel.IsGroup())
}
