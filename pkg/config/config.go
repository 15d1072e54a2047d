package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
}

type AppConfig struct {
	// Env "develop" switches to debug logging
	Env string `mapstructure:"env"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	Mode          string `mapstructure:"mode"`
	WebhookURL    string `mapstructure:"webhook_url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	ListenAddr    string `mapstructure:"listen_addr"`
	Debug         bool   `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	UseInMemory  bool   `mapstructure:"use_in_memory"`
}

type DialogueConfig struct {
	Timezone               string        `mapstructure:"timezone"`
	FreePlanMaxEvents      int           `mapstructure:"free_plan_max_events"`
	RecentCompletions      int           `mapstructure:"recent_completions"`
	ProfileRefreshInterval time.Duration `mapstructure:"profile_refresh_interval"`
}

// Location loads the configured timezone.
func (c DialogueConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required")
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" || c.Telegram.WebhookSecret == "" {
			return errors.New("webhook mode requires telegram.webhook_url and telegram.webhook_secret")
		}
	default:
		return fmt.Errorf("unknown telegram mode %q", c.Telegram.Mode)
	}
	if c.Dialogue.FreePlanMaxEvents < 1 {
		return fmt.Errorf("dialogue.free_plan_max_events must be positive, got %d", c.Dialogue.FreePlanMaxEvents)
	}
	if _, err := c.Dialogue.Location(); err != nil {
		return err
	}
	return nil
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads path and the environment. A missing file is not an
// error; defaults and environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("app.env", "production")
	v.SetDefault("telegram.mode", ModePolling)
	v.SetDefault("telegram.listen_addr", ":8080")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("dialogue.timezone", "Asia/Taipei")
	v.SetDefault("dialogue.free_plan_max_events", 5)
	v.SetDefault("dialogue.recent_completions", 5)
	v.SetDefault("dialogue.profile_refresh_interval", "168h")

	// Enable environment variable support, e.g. DIALOGUE_TIMEZONE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		dbConfig.MaxOpenConns = config.Database.MaxOpenConns
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	return &config, nil
}
