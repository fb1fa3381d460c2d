// Package bot реализует обработку входящих обновлений: разбор командного
// словаря, мутации реестра и передачу обычных сообщений движку пересылки.
package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-relay-bot/internal/auth"
	"telegram-relay-bot/internal/cache"
	"telegram-relay-bot/internal/domain"
	"telegram-relay-bot/internal/ports"
	"telegram-relay-bot/internal/registry"
	"telegram-relay-bot/internal/relay"
)

// Командный словарь. Первый токен текста, без маркера "/".
const (
	addGroupCommand    = "add_group"
	removeGroupCommand = "remove_group"
	listGroupsCommand  = "list_groups"
	addAdminCommand    = "add_admin"
	removeAdminCommand = "remove_admin"
	listAdminsCommand  = "list_admins"
	sendCommand        = "send"
	stopCommand        = "stop"
)

// AdminManage определяет, кто может администрировать список администраторов.
type AdminManage string

const (
	// AdminManageAny — любой текущий администратор (наиболее permissive
	// наблюдаемое поведение, значение по умолчанию).
	AdminManageAny AdminManage = "any_admin"
	// AdminManageSuperOnly — только супер-администраторы.
	AdminManageSuperOnly AdminManage = "super_only"
)

// Bot связывает реестр, политику авторизации и движок пересылки.
// Все его методы вызываются из единственной полосы обработки диспетчера,
// поэтому обработка обновлений строго последовательна.
type Bot struct {
	api         ports.TelegramAPI
	store       *registry.Store
	policy      *auth.Policy
	targets     *TargetStore
	chats       *cache.ChatCache
	engine      *relay.Engine
	adminManage AdminManage
	selfName    string // username бота, для команд вида /cmd@botname
	logger      *slog.Logger
}

// New создает и инициализирует новый экземпляр бота. selfName — username
// бота без "@"; используется при разборе адресованных команд.
func New(api ports.TelegramAPI, store *registry.Store, policy *auth.Policy, targets *TargetStore, chats *cache.ChatCache, engine *relay.Engine, adminManage AdminManage, selfName string, logger *slog.Logger) *Bot {
	return &Bot{
		api:         api,
		store:       store,
		policy:      policy,
		targets:     targets,
		chats:       chats,
		engine:      engine,
		adminManage: adminManage,
		selfName:    selfName,
		logger:      logger,
	}
}

// HandleUpdate классифицирует сырое обновление и обрабатывает его.
// Вызывается только из полосы обработки диспетчера.
func (b *Bot) HandleUpdate(update *tgbotapi.Update) {
	b.HandleInbound(domain.Classify(update, b.selfName))
}

// HandleInbound обрабатывает одно классифицированное обновление.
func (b *Bot) HandleInbound(in domain.Inbound) {
	switch in.Kind {
	case domain.InboundCommand:
		b.handleCommand(in)
	case domain.InboundPlain:
		b.engine.Relay(relay.NewJob(in))
	default:
		// Неподдерживаемые обновления молча игнорируются.
	}
}

// handleCommand разбирает и выполняет команду. Нераспознанные команды
// игнорируются без ответа.
func (b *Bot) handleCommand(in domain.Inbound) {
	b.logger.Info("command received",
		slog.String("command", in.Command),
		slog.Int64("chat_id", in.ChatID),
		slog.Int64("issuer", in.IssuerID))

	switch in.Command {
	case addGroupCommand:
		b.handleAddGroup(in)
	case removeGroupCommand:
		b.handleRemoveGroup(in)
	case listGroupsCommand:
		b.handleListGroups(in)
	case addAdminCommand:
		b.handleAddAdmin(in)
	case removeAdminCommand:
		b.handleRemoveAdmin(in)
	case listAdminsCommand:
		b.handleListAdmins(in)
	case sendCommand:
		b.handleSend(in)
	case stopCommand:
		b.handleStop(in)
	}
}

// requireAuthorized проверяет минимальный уровень прав. При отказе отвечает
// отправителю и гарантирует, что никакая мутация состояния не произошла.
func (b *Bot) requireAuthorized(in domain.Inbound) bool {
	if b.policy.IsAuthorized(in.IssuerID, b.store.Admins()) {
		return true
	}
	b.logger.Warn("unauthorized command rejected",
		slog.String("command", in.Command),
		slog.Int64("issuer", in.IssuerID))
	b.reply(in.ChatID, "❌ У вас нет прав для этой команды.")
	return false
}

// requireSuperAdmin — аналогично, но только для супер-администраторов.
func (b *Bot) requireSuperAdmin(in domain.Inbound) bool {
	if b.policy.IsSuperAdmin(in.IssuerID) {
		return true
	}
	b.logger.Warn("unauthorized command rejected",
		slog.String("command", in.Command),
		slog.Int64("issuer", in.IssuerID))
	b.reply(in.ChatID, "❌ Эта команда доступна только супер-администраторам.")
	return false
}

// canManageAdmins проверяет право администрировать список администраторов
// согласно настроенной политике.
func (b *Bot) canManageAdmins(in domain.Inbound) bool {
	tier := b.policy.Classify(in.IssuerID, b.store.Admins())
	switch tier {
	case auth.TierSuperAdmin:
		return true
	case auth.TierAdmin:
		return b.adminManage == AdminManageAny
	default:
		return false
	}
}

func (b *Bot) handleAddGroup(in domain.Inbound) {
	if !b.requireAuthorized(in) {
		return
	}
	if !in.ChatKind.IsGroup() {
		b.reply(in.ChatID, "❌ Команда доступна только в группе.")
		return
	}

	setName := setNameArg(in.Args)
	dest := domain.Destination{ChatID: in.ChatID, Title: in.ChatTitle, Kind: in.ChatKind}
	added, err := b.store.AddDestination(setName, dest)
	if err != nil {
		b.logger.Error("failed to persist destination", slog.String("error", err.Error()))
		b.reply(in.ChatID, "❌ Не удалось сохранить реестр. Изменение не применено.")
		return
	}
	if !added {
		b.reply(in.ChatID, "⚠️ Этот чат уже зарегистрирован.")
		return
	}
	b.reply(in.ChatID, fmt.Sprintf("✅ Эта группа добавлена в набор %q (id %d).", setName, in.ChatID))
}

func (b *Bot) handleRemoveGroup(in domain.Inbound) {
	if !b.requireAuthorized(in) {
		return
	}

	setName := setNameArg(in.Args)
	removed, err := b.store.RemoveDestination(setName, in.ChatID)
	if err != nil {
		b.logger.Error("failed to persist destination removal", slog.String("error", err.Error()))
		b.reply(in.ChatID, "❌ Не удалось сохранить реестр. Изменение не применено.")
		return
	}
	if !removed {
		b.reply(in.ChatID, "⚠️ Этот чат не зарегистрирован.")
		return
	}
	b.reply(in.ChatID, fmt.Sprintf("🗑️ Группа удалена из набора %q.", setName))
}

func (b *Bot) handleListGroups(in domain.Inbound) {
	if !b.requireAuthorized(in) {
		return
	}

	setName := setNameArg(in.Args)
	destinations := b.store.ListDestinations(setName)
	if len(destinations) == 0 {
		b.reply(in.ChatID, fmt.Sprintf("📭 В наборе %q нет зарегистрированных групп.", setName))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📤 Получатели в наборе %q:\n\n", setName)
	for _, d := range destinations {
		fmt.Fprintf(&sb, "- %d — %s\n", d.ChatID, b.chatTitle(d))
	}
	b.reply(in.ChatID, sb.String())
}

func (b *Bot) handleAddAdmin(in domain.Inbound) {
	if !b.canManageAdmins(in) {
		b.logger.Warn("unauthorized command rejected",
			slog.String("command", in.Command),
			slog.Int64("issuer", in.IssuerID))
		b.reply(in.ChatID, "❌ У вас нет прав администрировать администраторов.")
		return
	}

	userID, ok := userIDArg(in.Args)
	if !ok {
		b.reply(in.ChatID, "⚠️ Использование: /add_admin <user_id>")
		return
	}

	added, err := b.store.AddAdmin(userID)
	if err != nil {
		b.logger.Error("failed to persist admin", slog.String("error", err.Error()))
		b.reply(in.ChatID, "❌ Не удалось сохранить реестр. Изменение не применено.")
		return
	}
	if !added {
		b.reply(in.ChatID, fmt.Sprintf("⚠️ Пользователь %d уже администратор.", userID))
		return
	}
	b.reply(in.ChatID, fmt.Sprintf("✅ Администратор %d добавлен.", userID))
}

func (b *Bot) handleRemoveAdmin(in domain.Inbound) {
	if !b.canManageAdmins(in) {
		b.logger.Warn("unauthorized command rejected",
			slog.String("command", in.Command),
			slog.Int64("issuer", in.IssuerID))
		b.reply(in.ChatID, "❌ У вас нет прав администрировать администраторов.")
		return
	}

	userID, ok := userIDArg(in.Args)
	if !ok {
		b.reply(in.ChatID, "⚠️ Использование: /remove_admin <user_id>")
		return
	}

	removed, err := b.store.RemoveAdmin(userID)
	if err != nil {
		if errors.Is(err, registry.ErrSuperAdmin) {
			b.reply(in.ChatID, "❌ Супер-администратора нельзя удалить.")
			return
		}
		b.logger.Error("failed to persist admin removal", slog.String("error", err.Error()))
		b.reply(in.ChatID, "❌ Не удалось сохранить реестр. Изменение не применено.")
		return
	}
	if !removed {
		b.reply(in.ChatID, fmt.Sprintf("⚠️ Пользователь %d не администратор.", userID))
		return
	}
	b.reply(in.ChatID, fmt.Sprintf("🗑️ Администратор %d удален.", userID))
}

func (b *Bot) handleListAdmins(in domain.Inbound) {
	if !b.requireAuthorized(in) {
		return
	}

	var sb strings.Builder
	sb.WriteString("👮 Супер-администраторы:\n")
	for _, id := range b.policy.SuperAdmins() {
		fmt.Fprintf(&sb, "- %d\n", id)
	}

	runtime := make([]int64, 0)
	for _, id := range b.store.Admins() {
		if !b.policy.IsSuperAdmin(id) {
			runtime = append(runtime, id)
		}
	}
	if len(runtime) > 0 {
		sb.WriteString("\nАдминистраторы:\n")
		for _, id := range runtime {
			fmt.Fprintf(&sb, "- %d\n", id)
		}
	}
	b.reply(in.ChatID, sb.String())
}

func (b *Bot) handleSend(in domain.Inbound) {
	if !b.requireSuperAdmin(in) {
		return
	}

	if len(in.Args) == 0 {
		b.reply(in.ChatID, "⚠️ Использование: /send <имя_набора>")
		return
	}
	setName := in.Args[0]
	if !b.store.HasSet(setName) {
		b.reply(in.ChatID, fmt.Sprintf("⚠️ Неизвестный набор %q. Доступные: %s.", setName, strings.Join(b.store.SetNames(), ", ")))
		return
	}

	b.targets.Set(in.IssuerID, setName)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Последующие сообщения будут пересылаться в набор %q:\n\n", setName)
	for _, d := range b.store.ListDestinations(setName) {
		fmt.Fprintf(&sb, "- %s\n", b.chatTitle(d))
	}
	b.reply(in.ChatID, sb.String())
}

func (b *Bot) handleStop(in domain.Inbound) {
	if !b.requireSuperAdmin(in) {
		return
	}
	b.targets.Clear(in.IssuerID)
	b.reply(in.ChatID, "✅ Выбор цели сброшен.")
}

// chatTitle возвращает отображаемое имя получателя: сохраненный заголовок,
// иначе результат getChat (с кэшированием), иначе пометку о недоступности.
func (b *Bot) chatTitle(d domain.Destination) string {
	if d.Title != "" {
		return d.Title
	}
	if info, ok := b.chats.Get(d.ChatID); ok {
		return info.Title
	}

	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: d.ChatID},
	})
	if err != nil {
		// Чат мог стать недоступным боту; это не ошибка уровня команды.
		b.logger.Warn("getChat failed", slog.Int64("chat_id", d.ChatID), slog.String("error", err.Error()))
		return "недоступен"
	}

	title := chat.Title
	if title == "" {
		title = strconv.FormatInt(d.ChatID, 10)
	}
	b.chats.Put(d.ChatID, cache.ChatInfo{Title: title, Kind: domain.ChatKind(chat.Type)})
	return title
}

// reply отправляет текстовый ответ в чат. Ошибка отправки только логируется:
// ответы best-effort и не влияют на состояние.
func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send reply", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
	}
}

// setNameArg извлекает опциональное имя набора из аргументов команды.
func setNameArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return registry.DefaultSet
}

// userIDArg разбирает обязательный числовой идентификатор пользователя.
func userIDArg(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
