package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Security SecurityConfig `mapstructure:"security"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type SecurityConfig struct {
	KeyFile    string `mapstructure:"key_file"`
	AuditFile  string `mapstructure:"audit_file"`
	AlertsFile string `mapstructure:"alerts_file"`
}

type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	AbsoluteTimeout time.Duration `mapstructure:"absolute_timeout"`
	MaxInvalid      int           `mapstructure:"max_invalid_attempts"`
	MaxSuspicious   int           `mapstructure:"max_suspicious_activities"`
}

type AuthConfig struct {
	RecentFailureWindow    time.Duration `mapstructure:"recent_failure_window"`
	RecentFailureThreshold int           `mapstructure:"recent_failure_threshold"`
	BcryptCost             int           `mapstructure:"bcrypt_cost"`
}

type DatabaseConfig struct {
	Type     string         `mapstructure:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds the pgx connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("security.key_file", "encryption.key")
	v.SetDefault("security.audit_file", "audit.log")
	v.SetDefault("security.alerts_file", "alerts_seen.yaml")
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.absolute_timeout", "2h")
	v.SetDefault("session.max_invalid_attempts", 5)
	v.SetDefault("session.max_suspicious_activities", 3)
	v.SetDefault("auth.recent_failure_window", "10m")
	v.SetDefault("auth.recent_failure_threshold", 3)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.path", "console.db")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "console")
	v.SetDefault("database.postgres.user", "console")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fleetgrid/console")
	}

	// Environment variables override
	v.SetEnvPrefix("CONSOLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
