package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPostcardPrompt is the base generation prompt used when neither the
// YAML config nor a trigger override supplies one.
const DefaultPostcardPrompt = "Уютная открытка-приглашение на пивную среду: " +
	"крафтовый бар, тёплый свет, кружки с пенным пивом, дружеская атмосфера."

// Config holds the application configuration. Secrets and chat identifiers
// come from the environment; prompts, scenarios and trigger timing come from
// the YAML file. Defaults cover everything that can have one.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Groq     GroqConfig     `yaml:"groq"`
	Postcard PostcardConfig `yaml:"postcard"`
	Poll     PollConfig     `yaml:"poll"`
	Triggers TriggersConfig `yaml:"triggers"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig holds bot credentials.
type TelegramConfig struct {
	Token string `yaml:"-"` // TELEGRAM_BOT_TOKEN
}

// GroqConfig holds settings for the Groq chat-completions client.
type GroqConfig struct {
	Key         string  `yaml:"-"` // GROQ_API_KEY
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// PostcardConfig holds settings for the postcard generation pipeline.
type PostcardConfig struct {
	Token           string   `yaml:"-"` // HF_API_TOKEN
	Model           string   `yaml:"model"`
	BaseURL         string   `yaml:"base_url"`
	Prompt          string   `yaml:"prompt"`
	NegativePrompt  string   `yaml:"negative_prompt"`
	Caption         string   `yaml:"caption"`
	Scenarios       []string `yaml:"scenarios"`
	Timeout         Duration `yaml:"timeout"`
	MaxRetries      int      `yaml:"max_retries"`
	Width           int      `yaml:"width"`
	Height          int      `yaml:"height"`
	GuidanceScale   float64  `yaml:"guidance_scale"`
	Steps           int      `yaml:"steps"`
	PlaceholderPath string   `yaml:"placeholder_path"`
}

// PollConfig holds the attendance poll copy and quorum.
type PollConfig struct {
	Question  string   `yaml:"question"`
	Options   []string `yaml:"options"`
	Threshold int      `yaml:"threshold"`
}

// TriggerConfig describes one recurring broadcast trigger. Weekday is the
// target weekday by English name ("friday"). For the barhopping trigger the
// scheduler runs its check the day before the target.
type TriggerConfig struct {
	ChatID       int64  `yaml:"-"` // from env
	Weekday      string `yaml:"weekday"`
	Hour         int    `yaml:"hour"`
	Minute       int    `yaml:"minute"`
	Timezone     string `yaml:"timezone"`
	Prompt       string `yaml:"prompt"`
	Caption      string `yaml:"caption"`
	PollQuestion string `yaml:"poll_question"`
}

// TriggersConfig holds all configured triggers.
type TriggersConfig struct {
	Postcard      TriggerConfig `yaml:"postcard"`
	Barhopping    TriggerConfig `yaml:"barhopping"`
	DebugInterval Duration      `yaml:"debug_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// deprecatedGroqModels maps retired model names to their replacements.
var deprecatedGroqModels = map[string]string{
	"llama-3.2-11b-vision-preview": "llava-v1.5-7b-4096-preview",
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Groq: GroqConfig{
			Model:       "llava-v1.5-7b-4096-preview",
			BaseURL:     "https://api.groq.com/openai/v1/chat/completions",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Postcard: PostcardConfig{
			Model:           "black-forest-labs/FLUX.1-schnell",
			Prompt:          DefaultPostcardPrompt,
			Caption:         "Пивная среда уже близко!",
			Timeout:         Duration(60 * time.Second),
			MaxRetries:      3,
			Width:           1024,
			Height:          1024,
			GuidanceScale:   3.5,
			Steps:           28,
			PlaceholderPath: "assets/placeholder.png",
		},
		Poll: PollConfig{
			Question:  "Кто идёт на пивную среду?",
			Options:   []string{"Я иду", "Ещё не решил", "Не смогу"},
			Threshold: 5,
		},
		Triggers: TriggersConfig{
			Postcard: TriggerConfig{
				Weekday:  "wednesday",
				Hour:     9,
				Timezone: "Asia/Almaty",
			},
			Barhopping: TriggerConfig{
				Weekday:  "friday",
				Hour:     12,
				Timezone: "Asia/Almaty",
			},
			DebugInterval: Duration(2 * time.Minute),
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// Load reads the YAML file at path (if it exists) on top of the defaults and
// then applies the environment overlay. It fails if a required environment
// variable is missing.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadEnv() error {
	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Groq.Key = os.Getenv("GROQ_API_KEY")
	c.Postcard.Token = os.Getenv("HF_API_TOKEN")

	if v := os.Getenv("GROQ_MODEL"); v != "" {
		c.Groq.Model = v
	}
	if v := os.Getenv("GROQ_BASE_URL"); v != "" {
		c.Groq.BaseURL = v
	}
	if v := os.Getenv("HF_MODEL"); v != "" {
		c.Postcard.Model = v
	}
	if v := os.Getenv("HF_BASE_URL"); v != "" {
		c.Postcard.BaseURL = v
	}
	if c.Postcard.BaseURL == "" {
		c.Postcard.BaseURL = "https://api-inference.huggingface.co/models/" + c.Postcard.Model
	}

	if replacement, ok := deprecatedGroqModels[c.Groq.Model]; ok {
		slog.Warn("Groq model is no longer supported, falling back",
			"model", c.Groq.Model, "replacement", replacement)
		c.Groq.Model = replacement
	}

	if v := os.Getenv("GROQ_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid GROQ_TEMPERATURE: %w", err)
		}
		c.Groq.Temperature = float32(f)
	}
	if v := os.Getenv("GROQ_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GROQ_MAX_TOKENS: %w", err)
		}
		c.Groq.MaxTokens = n
	}

	postcardChat, err := chatIDFromEnv("POSTCARD_CHAT_ID")
	if err != nil {
		return err
	}
	c.Triggers.Postcard.ChatID = postcardChat

	barhoppingChat, err := chatIDFromEnv("BARHOPPING_CHAT_ID")
	if err != nil {
		return err
	}
	if barhoppingChat == 0 {
		// The barhopping announcement goes to the postcard chat unless a
		// dedicated chat is configured.
		barhoppingChat = postcardChat
	}
	c.Triggers.Barhopping.ChatID = barhoppingChat

	if v := os.Getenv("BARHOPPING_TIMEZONE"); v != "" {
		c.Triggers.Barhopping.Timezone = v
	}
	if v := os.Getenv("BARHOPPING_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BARHOPPING_HOUR: %w", err)
		}
		c.Triggers.Barhopping.Hour = n
	}

	var missing []string
	if c.Telegram.Token == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Groq.Key == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func chatIDFromEnv(name string) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// ParseWeekday resolves an English weekday name ("friday", "Fri") to
// time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
