package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/semmidev/pusher/internal/domain"
)

const EnvPrefix = "PUSHER"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Push    PushConfig    `mapstructure:"push"`
	Storage StorageConfig `mapstructure:"storage"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

type AppConfig struct {
	Name          string `mapstructure:"name"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

type PushConfig struct {
	LocalDirectory string `mapstructure:"local_directory"`
	// LogFile is the plain-text report log operators watch.
	LogFile     string `mapstructure:"log_file"`
	SortEntries bool   `mapstructure:"sort_entries"`
	// Schedule is a 6-field cron spec; empty means run once and exit.
	Schedule string `mapstructure:"schedule"`
}

type StorageConfig struct {
	Provider     string `mapstructure:"provider"`
	AccessKey    string `mapstructure:"access_key"`
	AccessSecret string `mapstructure:"access_secret"`
	Bucket       string `mapstructure:"bucket"`
	KeyPrefix    string `mapstructure:"key_prefix"`
	AccountID    string `mapstructure:"account_id"`

	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	PartSizeMB   int64  `mapstructure:"part_size_mb"`
	StorageClass string `mapstructure:"storage_class"`
	// MaxAttempts caps SDK attempts per request; 0 keeps the SDK default.
	MaxAttempts int `mapstructure:"max_attempts"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	BotToken     string `mapstructure:"bot_token"`
	ChatID       string `mapstructure:"chat_id"`
	OnlyFailures bool   `mapstructure:"only_failures"`
}

const (
	ProviderS3    = "s3"
	ProviderGCS   = "gcs"
	ProviderAzure = "azure"
)

// Load reads path (if non-empty) and overlays PUSHER_* environment variables.
// v may carry flag bindings; pass nil for a fresh instance.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config: %w", domain.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", domain.ErrConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "backup-pusher")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "")
	v.SetDefault("app.log_max_size_mb", 100)
	v.SetDefault("app.log_max_backups", 3)
	v.SetDefault("app.log_max_age_days", 28)

	v.SetDefault("push.local_directory", "")
	v.SetDefault("push.log_file", "logs/push_to_s3.log")
	v.SetDefault("push.sort_entries", false)
	v.SetDefault("push.schedule", "")

	// Registered so AutomaticEnv can see them during Unmarshal.
	v.SetDefault("storage.provider", ProviderS3)
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.access_secret", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.key_prefix", "")
	v.SetDefault("storage.account_id", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("storage.part_size_mb", 5)
	v.SetDefault("storage.storage_class", "")
	v.SetDefault("storage.max_attempts", 0)

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("notify.telegram.only_failures", false)
}

func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"storage.access_key", c.Storage.AccessKey},
		{"storage.access_secret", c.Storage.AccessSecret},
		{"storage.bucket", c.Storage.Bucket},
		{"storage.key_prefix", c.Storage.KeyPrefix},
		{"storage.account_id", c.Storage.AccountID},
		{"push.local_directory", c.Push.LocalDirectory},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrConfig, r.key)
		}
	}

	if c.Push.LogFile == "" {
		return fmt.Errorf("%w: push.log_file is required", domain.ErrConfig)
	}

	switch c.Storage.Provider {
	case ProviderS3, ProviderGCS, ProviderAzure:
	default:
		return fmt.Errorf("%w: unsupported storage.provider %q", domain.ErrConfig, c.Storage.Provider)
	}

	if c.Storage.PartSizeMB != 0 && c.Storage.PartSizeMB < 5 {
		return fmt.Errorf("%w: storage.part_size_mb must be 0 or at least 5", domain.ErrConfig)
	}

	if c.Storage.MaxAttempts < 0 {
		return fmt.Errorf("%w: storage.max_attempts must not be negative", domain.ErrConfig)
	}

	if tg := c.Notify.Telegram; tg.Enabled {
		if tg.BotToken == "" {
			return fmt.Errorf("%w: notify.telegram.bot_token is required when enabled", domain.ErrConfig)
		}
		if _, err := strconv.ParseInt(tg.ChatID, 10, 64); err != nil {
			return fmt.Errorf("%w: notify.telegram.chat_id must be numeric", domain.ErrConfig)
		}
	}

	return nil
}

// PartSize returns the configured part size in bytes, 0 meaning SDK default.
func (s StorageConfig) PartSize() int64 {
	return s.PartSizeMB * 1024 * 1024
}
