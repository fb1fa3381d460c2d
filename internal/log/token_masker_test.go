package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleToken = "bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw2"

func TestMaskTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "token inside a request url",
			in:   "Endpoint: https://api.telegram.org/" + sampleToken + "/getMe",
			want: "Endpoint: https://api.telegram.org/bot***:***masked-token***/getMe",
		},
		{
			name: "bare token",
			in:   sampleToken,
			want: "bot***:***masked-token***",
		},
		{
			name: "no token",
			in:   "delivered to chat -100555",
			want: "delivered to chat -100555",
		},
		{
			name: "short suffix is not a token",
			in:   "bot42:short",
			want: "bot42:short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskTokens(tt.in))
		})
	}
}

func TestMaskedLogger(t *testing.T) {
	t.Run("message and string attrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

		logger.Info("request failed: "+sampleToken,
			slog.String("url", "https://api.telegram.org/"+sampleToken+"/sendMessage"))

		out := buf.String()
		assert.NotContains(t, out, sampleToken)
		assert.Contains(t, out, "***masked-token***")
	})

	t.Run("error attr", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

		err := fmt.Errorf("Post \"https://api.telegram.org/%s/sendMessage\": connection refused", sampleToken)
		logger.Error("telegram request failed", slog.Any("error", err))

		out := buf.String()
		assert.NotContains(t, out, sampleToken)
		assert.Contains(t, out, "connection refused")
	})

	t.Run("preformatted attrs from With", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil)).
			With(slog.String("endpoint", "https://api.telegram.org/"+sampleToken))

		logger.Info("starting")

		assert.NotContains(t, buf.String(), sampleToken)
	})

	t.Run("grouped attrs", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

		logger.Info("webhook registered",
			slog.Group("telegram", slog.String("url", "https://api.telegram.org/"+sampleToken)))

		assert.NotContains(t, buf.String(), sampleToken)
	})

	t.Run("non-string attrs pass through", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewMaskedLogger(slog.NewTextHandler(&buf, nil))

		logger.Info("delivered", slog.Int64("chat_id", -100555), slog.Bool("ok", true))

		out := buf.String()
		assert.Contains(t, out, "chat_id=-100555")
		assert.Contains(t, out, "ok=true")
	})
}

func TestTGBotAPIAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := &TGBotAPIAdapter{Logger: NewMaskedLogger(slog.NewTextHandler(&buf, nil))}

	adapter.Println("Endpoint:", "https://api.telegram.org/"+sampleToken+"/getMe")
	adapter.Printf("status %d for %s", 200, sampleToken)

	out := buf.String()
	assert.NotContains(t, out, sampleToken)
	assert.Contains(t, out, "status 200")
}
