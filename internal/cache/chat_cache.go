package cache

import (
	"context"
	"sync"
	"time"

	"telegram-relay-bot/internal/domain"
)

// ChatInfo — кэшированные метаданные чата.
type ChatInfo struct {
	Title string
	Kind  domain.ChatKind
}

// chatItem — один элемент кэша со сроком действия.
type chatItem struct {
	info      ChatInfo
	expiresAt time.Time
}

// ChatCache хранит метаданные чатов, полученные через getChat,
// чтобы не дергать Telegram API при каждом рендеринге списка получателей.
type ChatCache struct {
	mu    sync.RWMutex
	items map[int64]*chatItem
	ttl   time.Duration
}

// NewChatCache создает кэш с заданным сроком жизни элементов.
func NewChatCache(ttl time.Duration) *ChatCache {
	return &ChatCache{
		items: make(map[int64]*chatItem),
		ttl:   ttl,
	}
}

// Get извлекает метаданные чата. Просроченный элемент считается отсутствующим.
func (c *ChatCache) Get(chatID int64) (ChatInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[chatID]
	if !ok || time.Now().After(item.expiresAt) {
		return ChatInfo{}, false
	}
	return item.info, true
}

// Put сохраняет метаданные чата.
func (c *ChatCache) Put(chatID int64, info ChatInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[chatID] = &chatItem{
		info:      info,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// CleanupExpired удаляет просроченные элементы.
func (c *ChatCache) CleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for chatID, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, chatID)
		}
	}
}

// StartCleanupTicker запускает тикер для периодической очистки просроченных
// элементов. Останавливается при отмене контекста.
func (c *ChatCache) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CleanupExpired()
			}
		}
	}()
}
