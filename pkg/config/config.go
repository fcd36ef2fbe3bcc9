package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Redis    RedisConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string
	Port              int
	CORSAllowOrigins  string
	RateLimitMax      int
	RateLimitDuration time.Duration
}

// SessionConfig holds session token and cookie settings.
type SessionConfig struct {
	Secret       string
	Expiration   time.Duration
	CookieName   string
	CookieSecure bool
}

// RedisConfig points the rate limiter at a shared Redis. An empty Addr keeps
// limiter state in process memory.
type RedisConfig struct {
	Addr string
	DB   int
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level    string
	Encoding string
}

// LoadConfig loads configuration from environment variables and defaults.
// Environment variables are uppercase with underscores, e.g. DB_PATH.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)
	v.AutomaticEnv()

	if err := validateRequired(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:          v.GetString("db_driver"),
			Path:            v.GetString("db_path"),
			DSN:             v.GetString("db_dsn"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
			BusyTimeout:     v.GetDuration("db_busy_timeout"),
		},
		Server: ServerConfig{
			Host:              v.GetString("server_host"),
			Port:              v.GetInt("server_port"),
			CORSAllowOrigins:  v.GetString("server_cors_allow_origins"),
			RateLimitMax:      v.GetInt("server_rate_limit_max"),
			RateLimitDuration: v.GetDuration("server_rate_limit_duration"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("session_secret"),
			Expiration:   v.GetDuration("session_expiration"),
			CookieName:   v.GetString("session_cookie_name"),
			CookieSecure: v.GetBool("session_cookie_secure"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("redis_addr"),
			DB:   v.GetInt("redis_db"),
		},
		Log: LogConfig{
			Level:    v.GetString("log_level"),
			Encoding: v.GetString("log_encoding"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "./data.db")
	v.SetDefault("db_max_open_conns", 5)
	v.SetDefault("db_max_idle_conns", 2)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 2*time.Minute)
	v.SetDefault("db_busy_timeout", 5*time.Second)

	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_cors_allow_origins", "*")
	v.SetDefault("server_rate_limit_max", 0)
	v.SetDefault("server_rate_limit_duration", time.Minute)

	// Session defaults
	v.SetDefault("session_expiration", 7*24*time.Hour)
	v.SetDefault("session_cookie_name", "sid")
	v.SetDefault("session_cookie_secure", false)

	v.SetDefault("redis_db", 0)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "json")
}

func bindEnv(v *viper.Viper) {
	// Database
	_ = v.BindEnv("db_driver", "DB_DRIVER")
	_ = v.BindEnv("db_path", "DB_PATH")
	_ = v.BindEnv("db_dsn", "DB_DSN")
	_ = v.BindEnv("db_max_open_conns", "DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("db_max_idle_conns", "DB_MAX_IDLE_CONNS")
	_ = v.BindEnv("db_conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	_ = v.BindEnv("db_conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")
	_ = v.BindEnv("db_busy_timeout", "DB_BUSY_TIMEOUT")

	// Server
	_ = v.BindEnv("server_host", "SERVER_HOST")
	_ = v.BindEnv("server_port", "SERVER_PORT")
	_ = v.BindEnv("server_cors_allow_origins", "SERVER_CORS_ALLOW_ORIGINS")
	_ = v.BindEnv("server_rate_limit_max", "SERVER_RATE_LIMIT_MAX")
	_ = v.BindEnv("server_rate_limit_duration", "SERVER_RATE_LIMIT_DURATION")

	// Session
	_ = v.BindEnv("session_secret", "SESSION_SECRET")
	_ = v.BindEnv("session_expiration", "SESSION_EXPIRATION")
	_ = v.BindEnv("session_cookie_name", "SESSION_COOKIE_NAME")
	_ = v.BindEnv("session_cookie_secure", "SESSION_COOKIE_SECURE")

	// Redis
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_db", "REDIS_DB")

	// Logging
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("log_encoding", "LOG_ENCODING")
}

func validateRequired(v *viper.Viper) error {
	if v.GetString("session_secret") == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	switch v.GetString("db_driver") {
	case "sqlite":
	case "postgres":
		if v.GetString("db_dsn") == "" {
			return fmt.Errorf("DB_DSN environment variable is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", v.GetString("db_driver"))
	}
	return nil
}
