package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Flash    FlashConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	DefaultLocale  string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// SessionConfig controls the server-side session and its cookie.
type SessionConfig struct {
	Store           string // "memory" or "redis"
	CookieName      string
	CookieSecure    bool
	CookieSameSite  string
	TTL             time.Duration
	MaxSessions     int
	EvictionPolicy  string // "evict-oldest" or "prevent-login"
	CleanupInterval time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type AuthConfig struct {
	LoginAttemptsPerMinute int
	TimingBaseDelayMs      int
	TimingRandomDelayMs    int
	AdminUserID            string
	AdminPassword          string
}

// FlashConfig signs the one-redirect message cookie.
type FlashConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	flashSecret := getEnv("FLASH_SECRET", "")
	if flashSecret == "" {
		return nil, fmt.Errorf("FLASH_SECRET is required")
	}

	env := getEnv("ENV", "development")

	db, err := LoadDatabase()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: *db,
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			DefaultLocale:  getEnv("DEFAULT_LOCALE", "ja"),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			Store:           getEnv("SESSION_STORE", "memory"),
			CookieName:      getEnv("SESSION_COOKIE_NAME", "formgate_session"),
			CookieSecure:    getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
			CookieSameSite:  getEnv("SESSION_COOKIE_SAMESITE", "Lax"),
			TTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			MaxSessions:     getEnvAsInt("SESSION_MAX_PER_USER", 1),
			EvictionPolicy:  getEnv("SESSION_EVICTION_POLICY", "evict-oldest"),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "formgate"),
		},
		Auth: AuthConfig{
			LoginAttemptsPerMinute: getEnvAsInt("LOGIN_ATTEMPTS_PER_MINUTE", 10),
			TimingBaseDelayMs:      getEnvAsInt("AUTH_TIMING_BASE_DELAY_MS", 250),
			TimingRandomDelayMs:    getEnvAsInt("AUTH_TIMING_RANDOM_DELAY_MS", 100),
			AdminUserID:            getEnv("ADMIN_USER_ID", ""),
			AdminPassword:          getEnv("ADMIN_PASSWORD", ""),
		},
		Flash: FlashConfig{
			Secret:     flashSecret,
			CookieName: getEnv("FLASH_COOKIE_NAME", "formgate_flash"),
			TTL:        getEnvAsDuration("FLASH_TTL", 1*time.Minute),
		},
	}

	if err := validateSecret(flashSecret, env); err != nil {
		return nil, err
	}

	switch cfg.Session.Store {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("SESSION_STORE must be memory or redis (got %q)", cfg.Session.Store)
	}

	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive (got %s)", cfg.Session.TTL)
	}
	if cfg.Session.CleanupInterval <= 0 {
		return nil, fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive (got %s)", cfg.Session.CleanupInterval)
	}
	if cfg.Flash.TTL <= 0 {
		return nil, fmt.Errorf("FLASH_TTL must be positive (got %s)", cfg.Flash.TTL)
	}

	switch cfg.Session.EvictionPolicy {
	case "evict-oldest", "prevent-login":
	default:
		return nil, fmt.Errorf("SESSION_EVICTION_POLICY must be evict-oldest or prevent-login (got %q)",
			cfg.Session.EvictionPolicy)
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that do not serve
// HTTP.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	db := &DatabaseConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "formgate"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
	}

	if db.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	return db, nil
}

// IsProduction reports whether diagnostic screens must stay unmounted.
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// validateSecret enforces minimum strength for the flash signing secret
func validateSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("FLASH_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("FLASH_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
