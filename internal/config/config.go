package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode is "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs lists host:port addresses, used in all modes.
	Addrs []string `mapstructure:"addrs"`

	// Addr is the single-mode fallback when Addrs is empty.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName is required in sentinel mode.
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig holds token signing settings. Lifetimes are in minutes for the
// access token and hours for the refresh token.
type JWTConfig struct {
	AccessSecret     string `mapstructure:"access_secret"`
	RefreshSecret    string `mapstructure:"refresh_secret"`
	AccessExpiryMin  int    `mapstructure:"access_expiry_min"`
	RefreshExpiryHrs int    `mapstructure:"refresh_expiry_hrs"`
}

// EmailConfig holds mail provider settings. An empty ResendAPIKey selects
// the noop sender.
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from an optional YAML file, with environment
// variables bound explicitly per key taking precedence.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.access_secret", "ACCESS_TOKEN_SECRET")
	vip.BindEnv("jwt.refresh_secret", "REFRESH_TOKEN_SECRET")
	vip.BindEnv("jwt.access_expiry_min", "JWT_ACCESS_EXPIRY_MIN")
	vip.BindEnv("jwt.refresh_expiry_hrs", "JWT_REFRESH_EXPIRY_HRS")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, using environment variables and defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Access Token Secret Set: %t", cfg.JWT.AccessSecret != "")
		log.Printf("Refresh Token Secret Set: %t", cfg.JWT.RefreshSecret != "")
		log.Printf("Resend API Key Set: %t", cfg.Email.ResendAPIKey != "")
		log.Printf("----------------------------")
	}

	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT secrets are required (check ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET env vars)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_* env vars)")
	}

	return &cfg, nil
}
