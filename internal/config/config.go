package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL    MySQLConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Gone     GoneConfig
	Site     SiteConfig
	Migrate  bool
	HTTPAddr string
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration.
// When Enabled is false the match cache lives in process memory: only writes
// made through the server's own admin API flush it, so it suits a single
// server instance and gonectl refuses pattern and setting writes.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// LogConfig holds logrus configuration
type LogConfig struct {
	Level  string
	Format string // text or json
}

// GoneConfig holds match engine configuration
type GoneConfig struct {
	CacheTTLSec int
	CachePrefix string
}

// SiteConfig describes the site protected by the gone guard.
// Upstream takes precedence over Root.
type SiteConfig struct {
	Upstream string
	Root     string
	GonePage string // optional body for 410 answers
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "1") == "1",
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_gone"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Gone: GoneConfig{
			CacheTTLSec: getEnvInt("GONE_CACHE_TTL_SEC", 3600),
			CachePrefix: getEnv("GONE_CACHE_PREFIX", "gone"),
		},
		Site: SiteConfig{
			Upstream: getEnv("SITE_UPSTREAM", ""),
			Root:     getEnv("SITE_ROOT", ""),
			GonePage: getEnv("SITE_GONE_PAGE", ""),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Enabled:  getValueBool("REDIS_ENABLED", "redis", "enabled", true),
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_gone"),
		},
		Log: LogConfig{
			Level:  getValue("LOG_LEVEL", "log", "level", "info"),
			Format: getValue("LOG_FORMAT", "log", "format", "text"),
		},
		Gone: GoneConfig{
			CacheTTLSec: getValueInt("GONE_CACHE_TTL_SEC", "gone", "cache_ttl_sec", 3600),
			CachePrefix: getValue("GONE_CACHE_PREFIX", "gone", "cache_prefix", "gone"),
		},
		Site: SiteConfig{
			Upstream: getValue("SITE_UPSTREAM", "site", "upstream", ""),
			Root:     getValue("SITE_ROOT", "site", "root", ""),
			GonePage: getValue("SITE_GONE_PAGE", "site", "gone_page", ""),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Gone.CacheTTLSec <= 0 {
		return fmt.Errorf("GONE_CACHE_TTL_SEC must be greater than 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
