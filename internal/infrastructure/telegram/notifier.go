package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Notifier posts photo cards to a Telegram chat via bot API.
type Notifier struct {
	baseURL     string
	botToken    string
	chatID      string
	buttonLabel string
	client      *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	base := strings.TrimRight(cfg.APIBaseURL, "/")
	if base == "" {
		base = defaultAPIBaseURL
	}
	return &Notifier{
		baseURL:     base,
		botToken:    cfg.BotToken,
		chatID:      cfg.ChatID,
		buttonLabel: cfg.ButtonLabel,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// SendCard posts the photo with an HTML caption and a "read more" button.
func (n *Notifier) SendCard(ctx context.Context, card domain.Card) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("photo", card.PhotoURL)
	form.Set("caption", card.Caption)
	form.Set("parse_mode", "HTML")
	if card.ThreadID != 0 {
		form.Set("message_thread_id", strconv.Itoa(card.ThreadID))
	}
	if card.LinkURL != "" {
		markup, err := json.Marshal(replyMarkup{
			InlineKeyboard: [][]inlineButton{{{Text: n.buttonLabel, URL: card.LinkURL}}},
		})
		if err != nil {
			return fmt.Errorf("marshal reply markup: %w", err)
		}
		form.Set("reply_markup", string(markup))
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendPhoto", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram error: %s: %s", resp.Status, out.Description)
		}
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
