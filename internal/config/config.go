// Package config manages application configuration from a YAML file,
// BOT_* environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components.
// Values can be set via config.yaml or environment variables prefixed
// with BOT_ (e.g., BOT_TELEGRAM_TOKEN, BOT_GEMINI_API_KEY).
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Search    SearchConfig    `mapstructure:"search"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings. When WebhookURL is set
// the bot serves updates over an inbound webhook instead of long polling.
type TelegramConfig struct {
	Token      string `mapstructure:"token"       validate:"required"`
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
	ListenAddr string `mapstructure:"listen_addr" validate:"required_with=WebhookURL"`
	Workers    int    `mapstructure:"workers"     validate:"min=1,max=100"`

	// BotInfo is populated at startup via GetMe, not from the config file.
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"     validate:"required"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Instruction string        `mapstructure:"instruction"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	MaxResults int           `mapstructure:"max_results" validate:"min=1,max=10"`
	UserAgent  string        `mapstructure:"user_agent"  validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=2m"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig declares scheduled tasks keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds all user-facing message texts.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"         validate:"required"`
	WelcomeBack    string `mapstructure:"welcome_back"    validate:"required"`
	ContactRequest string `mapstructure:"contact_request" validate:"required"`
	ContactSaved   string `mapstructure:"contact_saved"   validate:"required"`
	ChatError      string `mapstructure:"chat_error"      validate:"required"`
	SearchError    string `mapstructure:"search_error"    validate:"required"`
	ImageError     string `mapstructure:"image_error"     validate:"required"`
}

// LoadConfig reads configuration from the given YAML file path (optional) and
// BOT_* environment variables, applies defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; environment variables and defaults may be enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	// Secrets default to empty so viper knows the keys; this is what lets
	// AutomaticEnv resolve BOT_TELEGRAM_TOKEN and BOT_GEMINI_API_KEY during
	// Unmarshal. Validation still rejects empty values.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.listen_addr", ":8080")
	v.SetDefault("telegram.workers", 8)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.instruction", "")

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.timeout", 2*time.Minute)

	v.SetDefault("search.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.user_agent", "relaybot/1.0 (+https://github.com/dsoares/relaybot)")
	v.SetDefault("search.timeout", 20*time.Second)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("messages.welcome", "👋 Welcome! Send me a message and I'll answer, or use /websearch <query> to search the web.")
	v.SetDefault("messages.welcome_back", "👋 Welcome back! Ready when you are.")
	v.SetDefault("messages.contact_request", "📱 If you'd like, share your contact so I can reach you by phone.")
	v.SetDefault("messages.contact_saved", "✅ Thanks! Your contact has been saved.")
	v.SetDefault("messages.chat_error", "🤖 Sorry, I couldn't process your message. Please try again later.")
	v.SetDefault("messages.search_error", "🔎 Sorry, there was an error fetching results. Please try again later.")
	v.SetDefault("messages.image_error", "🖼 Sorry, there was an error analyzing the image. Please try again later.")
}
