package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage engines.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Store           string        // "memory" | "redis"
	VaultsFile      string        // path to the vaults.yaml listing local vaults
	UserVault       string        // URL of the viewer's vault, must be listed in VaultsFile (optional)
	FlagsPath       string        // badger directory for pin flags (empty = in-memory)
	FlagsSyncWrites bool          // fsync every flag write
	PruneInterval   time.Duration // interval between unfollowed-vault prunes (default: 24h)
	ReindexOnStart  bool          // load local vault files into the index at startup
	FanOut          int           // max concurrent enrichment fetches per page

	// Redis, only read when Store is "redis"
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AdminCIDRs []string // networks allowed to call admin endpoints (e.g. "10.0.0.0/8, 127.0.0.1/32")
	TrustProxy bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	WriteRatePerMin int // API writes allowed per client per minute (0 = unlimited)
	WriteRateBurst  int // burst allowance on top of WriteRatePerMin
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("VAULTSOCIAL_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("VAULTSOCIAL_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("VAULTSOCIAL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("VAULTSOCIAL_PRETTY_LOG", false),

		// Vaults and storage
		Store:           strings.ToLower(getenv("VAULTSOCIAL_STORE", StoreMemory)),
		VaultsFile:      requireEnv("VAULTSOCIAL_VAULTS_FILE"),
		UserVault:       getenv("VAULTSOCIAL_USER_VAULT", ""),
		FlagsPath:       getenv("VAULTSOCIAL_FLAGS_PATH", ""),
		FlagsSyncWrites: mustBool("VAULTSOCIAL_FLAGS_SYNC_WRITES", false),
		PruneInterval:   mustDuration("VAULTSOCIAL_PRUNE_INTERVAL", 24*time.Hour),
		ReindexOnStart:  mustBool("VAULTSOCIAL_REINDEX_ON_START", true),
		FanOut:          getenvInt("VAULTSOCIAL_FANOUT", 16),

		// Access restrictions
		AdminCIDRs: parseAllowedIPs(getenv("VAULTSOCIAL_ADMIN_CIDRS", "127.0.0.1/32, ::1/128")),
		TrustProxy: mustBool("VAULTSOCIAL_TRUST_PROXY", false),

		WriteRatePerMin: getenvInt("VAULTSOCIAL_WRITE_RATE_PER_MIN", 120),
		WriteRateBurst:  getenvInt("VAULTSOCIAL_WRITE_RATE_BURST", 20),
	}

	switch cfg.Store {
	case StoreMemory:
	case StoreRedis:
		cfg.loadRedis()
	default:
		panic(fmt.Sprintf("❌ FATAL: VAULTSOCIAL_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, cfg.Store))
	}

	if cfg.FanOut <= 0 {
		panic(fmt.Sprintf("❌ FATAL: VAULTSOCIAL_FANOUT must be > 0, got %d", cfg.FanOut))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func (cfg *Config) loadRedis() {
	cfg.RedisAddr = requireEnv("VAULTSOCIAL_REDIS_ADDR")
	cfg.RedisUser = getenv("VAULTSOCIAL_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("VAULTSOCIAL_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("VAULTSOCIAL_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("VAULTSOCIAL_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: VAULTSOCIAL_REDIS_PASSWORD is required when VAULTSOCIAL_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
