package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config groups application settings read through Viper from env and optional files.
type Config struct {
	App    AppConfig
	MRP    MRPConfig
	Source SourceConfig
	DB     DBConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env      string // development, staging, production
	LogLevel string
}

// MRPConfig holds engine limits and defaults.
type MRPConfig struct {
	MaxDepth int
	MaxNodes int
	Period   string // day or week
}

// SourceConfig selects where snapshots are read from.
type SourceConfig struct {
	Kind       string // csv, sqlite or postgres
	SQLitePath string
}

// DBConfig holds PostgreSQL settings.
// When DatabaseURL is set it is used verbatim.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString returns DATABASE_URL when set, otherwise the DSN built from parts.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds a PostgreSQL URL, escaping special characters in credentials.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// Load reads configuration from environment variables, then .env and config.env files.
// Environment variables win; config.env values are merged over .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	maxDepth, err := getInt(v, "MRP_MAX_DEPTH", 50)
	if err != nil {
		return nil, err
	}
	maxNodes, err := getInt(v, "MRP_MAX_NODES", 1_000_000)
	if err != nil {
		return nil, err
	}
	dbPort, err := getInt(v, "DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		MRP: MRPConfig{
			MaxDepth: maxDepth,
			MaxNodes: maxNodes,
			Period:   getString(v, "MRP_PERIOD", "day"),
		},
		Source: SourceConfig{
			Kind:       strings.ToLower(getString(v, "MRP_SOURCE", "csv")),
			SQLitePath: getString(v, "SQLITE_PATH", "printshop.db"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "printshop"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.MRP.MaxDepth <= 0 {
		return fmt.Errorf("MRP_MAX_DEPTH must be positive, got %d", c.MRP.MaxDepth)
	}
	if c.MRP.MaxNodes <= 0 {
		return fmt.Errorf("MRP_MAX_NODES must be positive, got %d", c.MRP.MaxNodes)
	}
	switch c.Source.Kind {
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("MRP_SOURCE must be csv, sqlite or postgres, got %q", c.Source.Kind)
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) (int, error) {
	if !v.IsSet(key) {
		return def, nil
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer, got %q", key, v.GetString(key))
		}
		return n, nil
	default:
		return v.GetInt(key), nil
	}
}
