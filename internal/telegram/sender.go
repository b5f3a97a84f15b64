// Package telegram is the chat transport: an HTTP client for the Bot
// API send primitives and a router for incoming webhook updates.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.telegram.org"

// Sender sends messages through the Telegram Bot API. It implements the
// engine's Dispatcher interface.
type Sender struct {
	token    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewSender creates a Sender. endpoint overrides the Bot API base URL
// and is empty outside tests.
func NewSender(token, endpoint string, logger *slog.Logger) *Sender {
	if endpoint == "" {
		endpoint = defaultAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		token:    token,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Send delivers a plain text message to a chat.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	data := url.Values{}
	data.Set("chat_id", strconv.FormatInt(chatID, 10))
	data.Set("text", text)
	return s.call(ctx, "sendMessage", data)
}

// SendWithKeyboard delivers a message with a reply keyboard.
func (s *Sender) SendWithKeyboard(ctx context.Context, chatID int64, text string, kb ReplyKeyboard) error {
	markup, err := json.Marshal(kb)
	if err != nil {
		return fmt.Errorf("encode keyboard: %w", err)
	}
	data := url.Values{}
	data.Set("chat_id", strconv.FormatInt(chatID, 10))
	data.Set("text", text)
	data.Set("reply_markup", string(markup))
	return s.call(ctx, "sendMessage", data)
}

// RegisterWebhook points the bot's webhook at url. secret, when set, is
// echoed back by Telegram in the X-Telegram-Bot-Api-Secret-Token header
// of every update.
func (s *Sender) RegisterWebhook(ctx context.Context, webhookURL, secret string) error {
	data := url.Values{}
	data.Set("url", webhookURL)
	if secret != "" {
		data.Set("secret_token", secret)
	}
	return s.call(ctx, "setWebhook", data)
}

// call posts one Bot API method and checks the response envelope.
func (s *Sender) call(ctx context.Context, method string, data url.Values) error {
	if s.token == "" {
		return errors.New("bot token is required")
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", s.endpoint, s.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%s returned %d: %s", method, resp.StatusCode, truncate(body, 200))
	}
	if !envelope.OK {
		return fmt.Errorf("%s failed: %s", method, envelope.Description)
	}
	return nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// --------------------------------------------------------------------------
// Keyboard markup
// --------------------------------------------------------------------------

// ReplyKeyboard is the Bot API ReplyKeyboardMarkup object.
type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard,omitempty"`
	OneTime        bool               `json:"one_time_keyboard,omitempty"`
}

// KeyboardButton is one button; RequestLocation asks the client to share
// the user's location.
type KeyboardButton struct {
	Text            string `json:"text"`
	RequestLocation bool   `json:"request_location,omitempty"`
}
