package config

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 10000
	DefaultShutdownTimeoutSeconds = 15

	// Relay defaults
	DefaultRelayMode     = "broadcast"
	DefaultRelayFidelity = "forward"
	DefaultAdminManage   = "any_admin"

	// Storage defaults
	DefaultStorageDir = "data"

	// Dispatch defaults
	DefaultQueueSize = 64

	// Cache defaults
	DefaultChatCacheTTLMinutes = 60

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
