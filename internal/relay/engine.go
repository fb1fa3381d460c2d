// Package relay реализует пересылку сообщений в наборы чатов-получателей.
package relay

import (
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telegram-relay-bot/internal/auth"
	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/ports"
	"telegram-relay-bot/internal/registry"
)

// Mode определяет политику выбора получателей.
type Mode string

const (
	// ModeBroadcast — сообщения из любых чатов рассылаются во весь набор
	// по умолчанию, кроме чата-источника.
	ModeBroadcast Mode = "broadcast"
	// ModePrivate — пересылаются только личные сообщения авторизованных
	// отправителей; набор определяется активной целью отправителя.
	ModePrivate Mode = "private"
)

// Fidelity определяет способ доставки.
type Fidelity string

const (
	// FidelityForward — форвард со ссылкой на источник
	// (сохраняет пометку "переслано от").
	FidelityForward Fidelity = "forward"
	// FidelityCopy — копия без атрибуции источника.
	FidelityCopy Fidelity = "copy"
)

// TargetSelector возвращает имя активного набора-цели для отправителя
// и признак того, что цель выбрана. Реализуется bot.TargetStore.
type TargetSelector interface {
	Get(actorID int64) (string, bool)
}

// Job — одно эфемерное задание пересылки. Живет только в памяти процесса:
// после завершения всех попыток (или отбрасывания) ничего не сохраняется
// и не повторяется.
type Job struct {
	ID          string
	SourceChat  int64
	MessageID   int
	IssuerID    int64
	ChatKind    domain.ChatKind
	CommandText bool // текст начинается с маркера команды
}

// NewJob создает задание с уникальным идентификатором для корреляции логов.
func NewJob(in domain.Inbound) Job {
	return Job{
		ID:          uuid.NewString(),
		SourceChat:  in.ChatID,
		MessageID:   in.MessageID,
		IssuerID:    in.IssuerID,
		ChatKind:    in.ChatKind,
		CommandText: strings.HasPrefix(in.Text, "/"),
	}
}

// Engine выполняет задания пересылки. Реестр он только читает,
// никогда не мутирует.
type Engine struct {
	api      ports.TelegramAPI
	store    *registry.Store
	policy   *auth.Policy
	targets  TargetSelector
	mode     Mode
	fidelity Fidelity
	logger   *slog.Logger
}

// NewEngine создает движок пересылки.
func NewEngine(api ports.TelegramAPI, store *registry.Store, policy *auth.Policy, targets TargetSelector, mode Mode, fidelity Fidelity, logger *slog.Logger) *Engine {
	return &Engine{
		api:      api,
		store:    store,
		policy:   policy,
		targets:  targets,
		mode:     mode,
		fidelity: fidelity,
		logger:   logger,
	}
}

// Relay выполняет одно задание: вычисляет список получателей и делает ровно
// одну попытку доставки на каждого. Ошибки отдельных получателей
// изолируются: неудача одного не прерывает и не задерживает остальных.
// Возвращаются результаты всех попыток.
func (e *Engine) Relay(job Job) []domain.Delivery {
	logger := e.logger.With(slog.String("job_id", job.ID), slog.Int64("source_chat", job.SourceChat))

	destinations := e.resolve(job)
	if len(destinations) == 0 {
		logger.Debug("no destinations resolved, nothing to relay")
		return nil
	}

	results := make([]domain.Delivery, 0, len(destinations))
	for _, dest := range destinations {
		err := e.attempt(dest.ChatID, job)
		results = append(results, domain.Delivery{ChatID: dest.ChatID, Err: err})
		if err != nil {
			logger.Error("delivery failed", slog.Int64("destination", dest.ChatID), slog.String("error", err.Error()))
			continue
		}
		logger.Info("delivered", slog.Int64("destination", dest.ChatID))
	}
	return results
}

// resolve вычисляет список получателей согласно режиму.
// Сообщения-команды не пересылаются ни в одном режиме.
func (e *Engine) resolve(job Job) []domain.Destination {
	if job.CommandText {
		return nil
	}

	switch e.mode {
	case ModePrivate:
		// Пересылаются только личные сообщения авторизованных отправителей.
		if job.ChatKind != domain.ChatKindPrivate {
			return nil
		}
		if !e.policy.IsAuthorized(job.IssuerID, e.store.Admins()) {
			return nil
		}
		setName := registry.DefaultSet
		if name, ok := e.targets.Get(job.IssuerID); ok {
			setName = name
		}
		return e.store.ListDestinations(setName)
	default:
		// Широковещательный режим: весь набор по умолчанию, кроме
		// чата-источника, чтобы исключить петлю пересылки.
		all := e.store.ListDestinations(registry.DefaultSet)
		out := make([]domain.Destination, 0, len(all))
		for _, d := range all {
			if d.ChatID == job.SourceChat {
				continue
			}
			out = append(out, d)
		}
		return out
	}
}

// attempt делает одну попытку доставки в один чат. Повторов нет.
func (e *Engine) attempt(chatID int64, job Job) error {
	if e.fidelity == FidelityCopy {
		_, err := e.api.Request(tgbotapi.NewCopyMessage(chatID, job.SourceChat, job.MessageID))
		return err
	}
	_, err := e.api.Send(tgbotapi.NewForward(chatID, job.SourceChat, job.MessageID))
	return err
}
