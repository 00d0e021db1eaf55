package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(portEnv, "")

	cfg := Load()

	assert.Equal(t, 4060, cfg.Server.Port)
	assert.Equal(t, ProviderGemini, cfg.Summarizer.Provider)
	assert.Equal(t, "znews", cfg.Source.Layout)
	assert.Equal(t, 10*time.Second, cfg.Source.Timeout)
	assert.Len(t, cfg.Source.Categories, 9)
	assert.Equal(t, 23, cfg.ThreadIDs()["the-thao"])
	assert.Equal(t, "Xem thêm", cfg.Notifications.Telegram.ButtonLabel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "postgres://news:secret@db:5432/news")
	t.Setenv(sourceDomainEnv, "https://news.example.com/")
	t.Setenv(telegramTokenEnv, "bot-token")
	t.Setenv(telegramChatIDEnv, "-100123")
	t.Setenv(geminiAPIKeyEnv, "gemini-key")
	t.Setenv(geminiModelEnv, "gemini-test")
	t.Setenv(summarizerEnv, "ChatGPT")
	t.Setenv(portEnv, "8081")
	t.Setenv(scrapeCronEnv, "0 * * * *")

	cfg := Load()

	assert.Equal(t, "postgres://news:secret@db:5432/news", cfg.Database.DSN)
	assert.Equal(t, "https://news.example.com", cfg.Source.Domain)
	assert.Equal(t, "bot-token", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "-100123", cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, "gemini-key", cfg.Summarizer.Gemini.APIKey)
	assert.Equal(t, "gemini-test", cfg.Summarizer.Gemini.Model)
	assert.Equal(t, ProviderChatGPT, cfg.Summarizer.Provider)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.ScrapeCron)
}

func TestLoadInvalidPortKeepsDefault(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(portEnv, "not-a-port")

	cfg := Load()
	assert.Equal(t, defaultPort, cfg.Server.Port)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsbrief.yaml")
	raw := `
source:
  domain: https://yaml.example.com
  order: page
  timeout: 3s
  categories:
    - slug: cong-nghe
      threadId: 2
  selectors:
    item: ".story"
scheduler:
  scrapeInterval: 15m
summarizer:
  prompt: "Summarize: {{content}}"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(sourceDomainEnv, "")
	t.Setenv(portEnv, "")

	cfg := Load()

	assert.Equal(t, "https://yaml.example.com", cfg.Source.Domain)
	assert.Equal(t, "page", cfg.Source.Order)
	assert.Equal(t, 3*time.Second, cfg.Source.Timeout)
	assert.Equal(t, []string{"cong-nghe"}, cfg.CategorySlugs())
	assert.Equal(t, ".story", cfg.Source.Selectors.Item)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.ScrapeInterval)
	assert.Zero(t, cfg.Scheduler.SummarizeInterval)
	assert.Equal(t, "Summarize: {{content}}", cfg.Summarizer.Prompt)
	assert.Equal(t, "gemini-2.5-flash", cfg.Summarizer.Gemini.Model)
}

func TestLoadBrokenYAMLFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unterminated"), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(sourceDomainEnv, "")

	cfg := Load()
	assert.Equal(t, defaultConfig().Source.Layout, cfg.Source.Layout)
	assert.Empty(t, cfg.Source.Domain)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRON_SOURCE_DOMAIN is not set")

	cfg.Source.Domain = "https://news.example.com"
	cfg.Summarizer.Gemini.APIKey = "gemini-key"
	assert.NoError(t, cfg.Validate())

	cfg.Summarizer.Provider = "bard"
	assert.ErrorContains(t, cfg.Validate(), `unknown summarizer provider "bard"`)

	cfg.Summarizer.Provider = ProviderGemini
	cfg.Source.Categories = nil
	assert.ErrorContains(t, cfg.Validate(), "no categories configured")
}

func TestValidateSelectedProviderCredentials(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Source.Domain = "https://news.example.com"
	assert.EqualError(t, cfg.Validate(), "GEMINI_API_KEY is not set")

	cfg.Summarizer.Gemini.APIKey = "gemini-key"
	cfg.Summarizer.Gemini.Model = ""
	assert.EqualError(t, cfg.Validate(), "GEMINI_MODEL is not set")

	cfg.Summarizer.Provider = ProviderChatGPT
	cfg.Summarizer.ChatGPT.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "CHATGPT_API_KEY is not set")
	assert.NotContains(t, cfg.Validate().Error(), "GEMINI_MODEL", "only the selected provider is checked")

	cfg.Summarizer.ChatGPT.APIKey = "openai-key"
	assert.NoError(t, cfg.Validate())
}

func TestValidateCronExpressions(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Source.Domain = "https://news.example.com"
	cfg.Summarizer.Gemini.APIKey = "gemini-key"
	cfg.Scheduler.ScrapeCron = "*/15 * * * *"
	assert.NoError(t, cfg.Validate())

	cfg.Scheduler.SummarizeCron = "every minute"
	assert.ErrorContains(t, cfg.Validate(), `cron "every minute"`)
}
