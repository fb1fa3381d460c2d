// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Bot содержит конфигурацию Telegram-бота
type Bot struct {
	Token string `json:"token" yaml:"token"`
	// Внешний базовый URL сервиса; путь /webhook добавляется автоматически.
	WebhookURL  string  `json:"webhook_url" yaml:"webhook_url"`
	SuperAdmins []int64 `json:"super_admins" yaml:"super_admins"`
}

// Relay содержит конфигурацию политики пересылки
type Relay struct {
	// Mode: "broadcast" или "private".
	Mode string `json:"mode" yaml:"mode"`
	// Fidelity: "forward" (с атрибуцией источника) или "copy".
	Fidelity string `json:"fidelity" yaml:"fidelity"`
	// AdminManage: "any_admin" или "super_only".
	AdminManage string `json:"admin_manage" yaml:"admin_manage"`
	// SeedSets — преднастроенные наборы получателей: имя → идентификаторы.
	SeedSets map[string][]int64 `json:"seed_sets" yaml:"seed_sets"`
}

// Storage содержит конфигурацию хранилища реестра
type Storage struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Dispatch содержит конфигурацию очереди обработки
type Dispatch struct {
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// Cache содержит конфигурацию кэша метаданных чатов
type Cache struct {
	TTLMinutes int `json:"ttl_minutes" yaml:"ttl_minutes"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server   Server   `json:"server" yaml:"server"`
	Bot      Bot      `json:"bot" yaml:"bot"`
	Relay    Relay    `json:"relay" yaml:"relay"`
	Storage  Storage  `json:"storage" yaml:"storage"`
	Dispatch Dispatch `json:"dispatch" yaml:"dispatch"`
	Cache    Cache    `json:"cache" yaml:"cache"`
	Logging  Logging  `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из config.yml,
// переменных окружения или .env файла.
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Отсутствие .env — это нормально, полагаемся на окружение или config.yml
	}

	// Попытка загрузки из config.yml сначала
	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg, err = loadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения
func loadFromEnv() (*Config, error) {
	token := getEnv("BOT_TOKEN", "")
	webhookURL := getEnv("WEBHOOK_URL", "")
	if token == "" || webhookURL == "" {
		return nil, fmt.Errorf("BOT_TOKEN и WEBHOOK_URL должны быть установлены в переменных окружения")
	}

	superAdmins, err := ParseIDList(getEnv("SUPER_ADMINS", ""))
	if err != nil {
		return nil, fmt.Errorf("недопустимый SUPER_ADMINS: %w", err)
	}

	seedSets, err := ParseSeedSets(getEnv("SEED_SETS", ""))
	if err != nil {
		return nil, fmt.Errorf("недопустимый SEED_SETS: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", strconv.Itoa(DefaultServerPort)))
	if err != nil {
		return nil, fmt.Errorf("недопустимый PORT: %w", err)
	}

	queueSize, err := strconv.Atoi(getEnv("QUEUE_SIZE", strconv.Itoa(DefaultQueueSize)))
	if err != nil {
		return nil, fmt.Errorf("недопустимый QUEUE_SIZE: %w", err)
	}

	return &Config{
		Server: Server{
			Host: getEnv("SERVER_HOST", DefaultServerHost),
			Port: port,
		},
		Bot: Bot{
			Token:       token,
			WebhookURL:  webhookURL,
			SuperAdmins: superAdmins,
		},
		Relay: Relay{
			Mode:        getEnv("RELAY_MODE", DefaultRelayMode),
			Fidelity:    getEnv("RELAY_FIDELITY", DefaultRelayFidelity),
			AdminManage: getEnv("ADMIN_MANAGE", DefaultAdminManage),
			SeedSets:    seedSets,
		},
		Storage: Storage{
			Dir: getEnv("STORAGE_DIR", DefaultStorageDir),
		},
		Dispatch: Dispatch{
			QueueSize: queueSize,
		},
		Logging: Logging{
			Level:  getEnv("LOG_LEVEL", DefaultLogLevel),
			Format: getEnv("LOG_FORMAT", DefaultLogFormat),
		},
	}, nil
}

// applyDefaults устанавливает значения по умолчанию для незаполненных полей
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	}
	if c.Relay.Mode == "" {
		c.Relay.Mode = DefaultRelayMode
	}
	if c.Relay.Fidelity == "" {
		c.Relay.Fidelity = DefaultRelayFidelity
	}
	if c.Relay.AdminManage == "" {
		c.Relay.AdminManage = DefaultAdminManage
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Dispatch.QueueSize == 0 {
		c.Dispatch.QueueSize = DefaultQueueSize
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = DefaultChatCacheTTLMinutes
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token не может быть пустым")
	}
	if c.Bot.WebhookURL == "" {
		return fmt.Errorf("bot.webhook_url не может быть пустым")
	}
	if len(c.Bot.SuperAdmins) == 0 {
		return fmt.Errorf("bot.super_admins не может быть пустым")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	switch c.Relay.Mode {
	case "broadcast", "private":
	default:
		return fmt.Errorf("relay.mode должен быть одним из: broadcast, private")
	}
	switch c.Relay.Fidelity {
	case "forward", "copy":
	default:
		return fmt.Errorf("relay.fidelity должен быть одним из: forward, copy")
	}
	switch c.Relay.AdminManage {
	case "any_admin", "super_only":
	default:
		return fmt.Errorf("relay.admin_manage должен быть одним из: any_admin, super_only")
	}

	if c.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("dispatch.queue_size должно быть положительным")
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// ParseIDList разбирает список числовых идентификаторов,
// разделенных запятыми: "42,1001".
func ParseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("недопустимый идентификатор %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseSeedSets разбирает преднастроенные наборы получателей в формате
// "group1:-100111,-100222;group2:-100333".
func ParseSeedSets(raw string) (map[string][]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string][]int64)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, ids, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("недопустимая запись набора %q, ожидается имя:id,id", entry)
		}
		list, err := ParseIDList(ids)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSpace(name)] = list
	}
	return out, nil
}

// getEnv извлекает значение переменной окружения или возвращает значение
// по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
