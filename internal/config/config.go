// Package config provides configuration loading, defaults, and validation
// for the Sahayak bot. Values come from config.yaml and BOT_* environment
// variables; every user-visible message string is overridable.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components of the
// Sahayak system: logging, the WhatsApp transport, the Gemini integration,
// persistence, the HTTP control surface, and scheduled tasks.
type Config struct {
	AppID string `mapstructure:"app_id" validate:"required"`

	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HTTPConfig configures the status/control web server.
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
}

// DatabaseConfig configures the SQLite state store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// WhatsAppConfig configures the whatsmeow transport.
type WhatsAppConfig struct {
	SessionPath string `mapstructure:"session_path" validate:"required"`
	DeviceName  string `mapstructure:"device_name"  validate:"required"`
}

// GeminiConfig configures the reply generator. An empty APIKey is allowed:
// the bot then answers with the unavailability fallback instead of calling
// the API.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"        validate:"required"`
	Temperature float32       `mapstructure:"temperature"  validate:"min=0,max=2"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay"   validate:"min=1ms,max=1m"`
}

// SchedulerConfig holds the scheduled task table, keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds every string the bot sends to users. Defaults match
// the Hindi texts the bot has always used.
type MessagesConfig struct {
	Connected string `mapstructure:"connected" validate:"required"`

	OnlineChanged  string `mapstructure:"online_changed"  validate:"required"`
	OnlineAlready  string `mapstructure:"online_already"  validate:"required"`
	OfflineChanged string `mapstructure:"offline_changed" validate:"required"`
	OfflineAlready string `mapstructure:"offline_already" validate:"required"`

	AssistantOnChanged  string `mapstructure:"assistant_on_changed"  validate:"required"`
	AssistantOnAlready  string `mapstructure:"assistant_on_already"  validate:"required"`
	AssistantOffChanged string `mapstructure:"assistant_off_changed" validate:"required"`
	AssistantOffAlready string `mapstructure:"assistant_off_already" validate:"required"`

	ReplyUnavailable    string `mapstructure:"reply_unavailable"     validate:"required"`
	ReplyNotUnderstood  string `mapstructure:"reply_not_understood"  validate:"required"`
	ReplyTechnicalIssue string `mapstructure:"reply_technical_issue" validate:"required"`
}

// Load reads configuration from an optional config.yaml and BOT_* environment
// variables, applies defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, everything has a default or env var.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
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
	v.SetDefault("app_id", "default-app-id")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("http.listen_addr", ":3000")

	v.SetDefault("database.path", "sahayak.db")

	v.SetDefault("whatsapp.session_path", "whatsapp-session.db")
	v.SetDefault("whatsapp.device_name", "Sahayak")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.max_attempts", 5)
	v.SetDefault("gemini.base_delay", time.Second)

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"db_maintenance": {Enabled: true, Schedule: "0 4 * * *"},
	})

	v.SetDefault("messages.connected",
		"बॉट सफलतापूर्वक कनेक्ट हो गया है और अब आपके पर्सनल असिस्टेंट के रूप में कार्य करने के लिए तैयार है!")

	v.SetDefault("messages.online_changed",
		"आपकी स्थिति अब: ऑनलाइन। बॉट अब अन्य यूज़र्स को जवाब नहीं देगा।")
	v.SetDefault("messages.online_already",
		"आप पहले से ही ऑनलाइन हैं।")
	v.SetDefault("messages.offline_changed",
		"आपकी स्थिति अब: ऑफ़लाइन। बॉट अब अन्य यूज़र्स को जवाब देगा।")
	v.SetDefault("messages.offline_already",
		"आप पहले से ही ऑफ़लाइन हैं।")

	v.SetDefault("messages.assistant_on_changed",
		"आपका पर्सनल असिस्टेंट मोड अब चालू है। मैं आपके संदेशों का जवाब दूंगा।")
	v.SetDefault("messages.assistant_on_already",
		"पर्सनल असिस्टेंट मोड पहले से ही चालू है।")
	v.SetDefault("messages.assistant_off_changed",
		"आपका पर्सनल असिस्टेंट मोड अब बंद है। मैं आपके संदेशों का जवाब नहीं दूंगा।")
	v.SetDefault("messages.assistant_off_already",
		"पर्सनल असिस्टेंट मोड पहले से ही बंद है।")

	v.SetDefault("messages.reply_unavailable",
		"माफ़ करना, मैं अभी जवाब नहीं दे पा रहा हूँ। कृपया थोड़ी देर बाद फिर से कोशिश करें।")
	v.SetDefault("messages.reply_not_understood",
		"माफ़ करना, मैं अभी आपकी बात नहीं समझ पा रहा हूँ।")
	v.SetDefault("messages.reply_technical_issue",
		"माफ़ करना, कुछ तकनीकी दिक्कत आ गई है।")
}
