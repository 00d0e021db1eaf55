package llm

import (
	"fmt"

	"NewsBrief/internal/config"
	"NewsBrief/internal/ports"
)

// New selects the summarizer configured by cfg.Provider.
func New(cfg config.SummarizerConfig) (ports.Summarizer, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return NewGeminiClient(cfg.Gemini, cfg.Prompt), nil
	case config.ProviderChatGPT:
		return NewChatGPTClient(cfg.ChatGPT, cfg.Prompt), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
