package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort        = 4060
	configPathEnv      = "NEWSBRIEF_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	databaseDriverEnv  = "DATABASE_DRIVER"
	sourceDomainEnv    = "CRON_SOURCE_DOMAIN"
	geminiAPIKeyEnv    = "GEMINI_API_KEY"
	geminiModelEnv     = "GEMINI_MODEL"
	chatGPTAPIKeyEnv   = "CHATGPT_API_KEY"
	chatGPTModelEnv    = "CHATGPT_MODEL"
	summarizerEnv      = "SUMMARIZER_PROVIDER"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	portEnv            = "PORT"
	scrapeCronEnv      = "SCRAPE_CRON"
	summarizeCronEnv   = "SUMMARIZE_CRON"
	logLevelEnv        = "LOG_LEVEL"
	logFormatEnv       = "LOG_FORMAT"
	ProviderGemini     = "gemini"
	ProviderChatGPT    = "chatgpt"
	defaultButtonLabel = "Xem thêm"
)

// dotenvFiles are loaded in order; variables already set are never overridden.
var dotenvFiles = []string{".env.local", ".env"}

// Config holds high-level settings required across the application.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Source        SourceConfig       `yaml:"source"`
	Summarizer    SummarizerConfig   `yaml:"summarizer"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ServerConfig describes the HTTP trigger surface.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig describes the SQL connection. Driver is inferred from the
// DSN when empty.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoggingConfig selects slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig enables in-process triggers. A cron expression wins over
// the interval of the same job; zero intervals and empty expressions disable it.
type SchedulerConfig struct {
	ScrapeInterval    time.Duration `yaml:"scrapeInterval"`
	SummarizeInterval time.Duration `yaml:"summarizeInterval"`
	ScrapeCron        string        `yaml:"scrapeCron"`
	SummarizeCron     string        `yaml:"summarizeCron"`
}

// SourceConfig points at the scraped site and its category sections.
type SourceConfig struct {
	Domain     string           `yaml:"domain"`
	Layout     string           `yaml:"layout"`
	Order      string           `yaml:"order"`
	Timeout    time.Duration    `yaml:"timeout"`
	UserAgent  string           `yaml:"userAgent"`
	Language   string           `yaml:"language"`
	Categories []CategoryConfig `yaml:"categories"`
	Selectors  SelectorConfig   `yaml:"selectors"`
}

// CategoryConfig names a listing section and the forum thread its cards go to.
type CategoryConfig struct {
	Slug     string `yaml:"slug"`
	ThreadID int    `yaml:"threadId"`
}

// SelectorConfig overrides the layout's CSS selectors. Empty values keep the
// layout defaults.
type SelectorConfig struct {
	Item          string   `yaml:"item"`
	IDAttr        string   `yaml:"idAttr"`
	Thumbnail     string   `yaml:"thumbnail"`
	ThumbnailAttr string   `yaml:"thumbnailAttr"`
	Title         string   `yaml:"title"`
	Link          string   `yaml:"link"`
	Content       string   `yaml:"content"`
	Noise         []string `yaml:"noise"`
}

// SummarizerConfig selects the LLM provider.
type SummarizerConfig struct {
	Provider string        `yaml:"provider"`
	Prompt   string        `yaml:"prompt"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	ChatGPT  ChatGPTConfig `yaml:"chatgpt"`
}

// GeminiConfig defines how to contact the Generative Language API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIBaseURL  string `yaml:"apiBaseUrl"`
	BotToken    string `yaml:"botToken"`
	ChatID      string `yaml:"chatId"`
	ButtonLabel string `yaml:"buttonLabel"`
}

// Load reads .env files, YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	for _, name := range dotenvFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("config: cannot load %s: %v", name, err)
		}
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Source.Domain) == "" {
		errs = append(errs, errors.New(sourceDomainEnv+" is not set"))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New(databaseDSNEnv+" is not set"))
	}
	if len(c.Source.Categories) == 0 {
		errs = append(errs, errors.New("no categories configured"))
	}
	switch p := c.Summarizer.Provider; p {
	case ProviderGemini:
		if strings.TrimSpace(c.Summarizer.Gemini.APIKey) == "" {
			errs = append(errs, errors.New(geminiAPIKeyEnv+" is not set"))
		}
		if strings.TrimSpace(c.Summarizer.Gemini.Model) == "" {
			errs = append(errs, errors.New(geminiModelEnv+" is not set"))
		}
	case ProviderChatGPT:
		if strings.TrimSpace(c.Summarizer.ChatGPT.APIKey) == "" {
			errs = append(errs, errors.New(chatGPTAPIKeyEnv+" is not set"))
		}
		if strings.TrimSpace(c.Summarizer.ChatGPT.Model) == "" {
			errs = append(errs, errors.New(chatGPTModelEnv+" is not set"))
		}
	default:
		errs = append(errs, errors.New("unknown summarizer provider "+strconv.Quote(p)))
	}
	for _, expr := range []string{c.Scheduler.ScrapeCron, c.Scheduler.SummarizeCron} {
		if expr == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			errs = append(errs, fmt.Errorf("cron %q: %w", expr, err))
		}
	}
	return errors.Join(errs...)
}

// ThreadIDs maps category slugs to their forum thread ids.
func (c Config) ThreadIDs() map[string]int {
	ids := make(map[string]int, len(c.Source.Categories))
	for _, cat := range c.Source.Categories {
		ids[cat.Slug] = cat.ThreadID
	}
	return ids
}

// CategorySlugs lists the configured category slugs in config order.
func (c Config) CategorySlugs() []string {
	slugs := make([]string, 0, len(c.Source.Categories))
	for _, cat := range c.Source.Categories {
		slugs = append(slugs, cat.Slug)
	}
	return slugs
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(sourceDomainEnv); v != "" {
		c.Source.Domain = strings.TrimRight(v, "/")
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(summarizerEnv); v != "" {
		c.Summarizer.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Summarizer.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Summarizer.Gemini.Model = v
	}
	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.Summarizer.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.Summarizer.ChatGPT.Model = v
	}

	if v := os.Getenv(portEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		} else {
			log.Printf("config: invalid %s %q, keeping %d", portEnv, v, c.Server.Port)
		}
	}

	if v := os.Getenv(scrapeCronEnv); v != "" {
		c.Scheduler.ScrapeCron = v
	}
	if v := os.Getenv(summarizeCronEnv); v != "" {
		c.Scheduler.SummarizeCron = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Port > 0 {
		base.Server.Port = override.Server.Port
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.ScrapeInterval > 0 {
		base.Scheduler.ScrapeInterval = override.Scheduler.ScrapeInterval
	}
	if override.Scheduler.SummarizeInterval > 0 {
		base.Scheduler.SummarizeInterval = override.Scheduler.SummarizeInterval
	}
	if override.Scheduler.ScrapeCron != "" {
		base.Scheduler.ScrapeCron = override.Scheduler.ScrapeCron
	}
	if override.Scheduler.SummarizeCron != "" {
		base.Scheduler.SummarizeCron = override.Scheduler.SummarizeCron
	}

	if override.Source.Domain != "" {
		base.Source.Domain = strings.TrimRight(override.Source.Domain, "/")
	}
	if override.Source.Layout != "" {
		base.Source.Layout = override.Source.Layout
	}
	if override.Source.Order != "" {
		base.Source.Order = override.Source.Order
	}
	if override.Source.Timeout > 0 {
		base.Source.Timeout = override.Source.Timeout
	}
	if override.Source.UserAgent != "" {
		base.Source.UserAgent = override.Source.UserAgent
	}
	if override.Source.Language != "" {
		base.Source.Language = override.Source.Language
	}
	if len(override.Source.Categories) > 0 {
		base.Source.Categories = override.Source.Categories
	}
	base.Source.Selectors = override.Source.Selectors

	if override.Summarizer.Provider != "" {
		base.Summarizer.Provider = strings.ToLower(override.Summarizer.Provider)
	}
	if override.Summarizer.Prompt != "" {
		base.Summarizer.Prompt = override.Summarizer.Prompt
	}
	if override.Summarizer.Gemini.Endpoint != "" {
		base.Summarizer.Gemini.Endpoint = override.Summarizer.Gemini.Endpoint
	}
	if override.Summarizer.Gemini.Model != "" {
		base.Summarizer.Gemini.Model = override.Summarizer.Gemini.Model
	}
	if override.Summarizer.Gemini.APIKey != "" {
		base.Summarizer.Gemini.APIKey = override.Summarizer.Gemini.APIKey
	}
	if override.Summarizer.ChatGPT.Endpoint != "" {
		base.Summarizer.ChatGPT.Endpoint = override.Summarizer.ChatGPT.Endpoint
	}
	if override.Summarizer.ChatGPT.Model != "" {
		base.Summarizer.ChatGPT.Model = override.Summarizer.ChatGPT.Model
	}
	if override.Summarizer.ChatGPT.APIKey != "" {
		base.Summarizer.ChatGPT.APIKey = override.Summarizer.ChatGPT.APIKey
	}
	if override.Summarizer.ChatGPT.SystemPrompt != "" {
		base.Summarizer.ChatGPT.SystemPrompt = override.Summarizer.ChatGPT.SystemPrompt
	}

	tg := override.Notifications.Telegram
	if tg.APIBaseURL != "" {
		base.Notifications.Telegram.APIBaseURL = tg.APIBaseURL
	}
	if tg.BotToken != "" {
		base.Notifications.Telegram.BotToken = tg.BotToken
	}
	if tg.ChatID != "" {
		base.Notifications.Telegram.ChatID = tg.ChatID
	}
	if tg.ButtonLabel != "" {
		base.Notifications.Telegram.ButtonLabel = tg.ButtonLabel
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Port: defaultPort},
		Database: DatabaseConfig{DSN: "file:newsbrief.db?_busy_timeout=5000"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Source: SourceConfig{
			Layout:    "znews",
			Order:     "oldest-first",
			Timeout:   10 * time.Second,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
			Language:  "vi-VN,vi;q=0.9,en;q=0.8",
			Categories: []CategoryConfig{
				{Slug: "the-thao", ThreadID: 23},
				{Slug: "cong-nghe", ThreadID: 21},
				{Slug: "suc-khoe", ThreadID: 13},
				{Slug: "doi-song", ThreadID: 11},
				{Slug: "giai-tri", ThreadID: 15},
				{Slug: "du-lich", ThreadID: 9},
				{Slug: "lifestyle", ThreadID: 7},
				{Slug: "thoi-su", ThreadID: 19},
				{Slug: "the-gioi", ThreadID: 17},
			},
		},
		Summarizer: SummarizerConfig{
			Provider: ProviderGemini,
			Gemini: GeminiConfig{
				Endpoint: "https://generativelanguage.googleapis.com/v1beta",
				Model:    "gemini-2.5-flash",
			},
			ChatGPT: ChatGPTConfig{
				Endpoint:     "https://api.openai.com/v1/chat/completions",
				Model:        "gpt-4o-mini",
				SystemPrompt: "You summarize news articles.",
			},
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{
				APIBaseURL:  "https://api.telegram.org",
				ButtonLabel: defaultButtonLabel,
			},
		},
	}
}
