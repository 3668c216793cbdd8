// Package telegram is a minimal Bot API client covering the calls the
// service makes: sending messages and managing the webhook. The bot token is
// held privately and never appears in errors or logs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client calls the Telegram Bot API on behalf of one bot.
type Client struct {
	HTTPClient *http.Client

	baseURL string
	token   string
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewClientWithBaseURL is NewClient pointed at a different API host, which is
// how tests stub the Bot API with httptest.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed: %d %s", e.Method, e.Code, e.Description)
}

// SendMessageParams are the options for SendMessage beyond chat and text.
type SendMessageParams struct {
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// InlineKeyboard builds an inline keyboard reply markup from rows of buttons.
func InlineKeyboard(rows ...[]InlineButton) any {
	return map[string]any{"inline_keyboard": rows}
}

// InlineButton is one button of an inline keyboard. Exactly one of URL or
// WebAppURL should be set.
type InlineButton struct {
	Text      string `json:"text"`
	URL       string `json:"url,omitempty"`
	WebAppURL string `json:"-"`
}

// MarshalJSON renders WebAppURL as the web_app object the Bot API expects.
func (b InlineButton) MarshalJSON() ([]byte, error) {
	out := map[string]any{"text": b.Text}
	if b.URL != "" {
		out["url"] = b.URL
	}
	if b.WebAppURL != "" {
		out["web_app"] = map[string]string{"url": b.WebAppURL}
	}
	return json.Marshal(out)
}

// SendMessage sends a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, params *SendMessageParams) error {
	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if params != nil {
		if params.ParseMode != "" {
			body["parse_mode"] = params.ParseMode
		}
		if params.ReplyMarkup != nil {
			body["reply_markup"] = params.ReplyMarkup
		}
	}
	return c.call(ctx, "sendMessage", body, nil)
}

// SetWebhook registers url as the bot's webhook endpoint. When secretToken is
// non-empty Telegram echoes it back in the X-Telegram-Bot-Api-Secret-Token
// header of every delivery, which the webhook handler enforces.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	body := map[string]any{"url": url}
	if secretToken != "" {
		body["secret_token"] = secretToken
	}
	return c.call(ctx, "setWebhook", body, nil)
}

// DeleteWebhook removes the registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{}, nil)
}

// redact strips the bot token from transport errors. The http client wraps
// failures in url.Error, whose message embeds the full request URL including
// the /bot<token>/ segment.
func redact(err error, token string) error {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, token, "REDACTED")
	}
	if msg := err.Error(); strings.Contains(msg, token) {
		return errors.New(strings.ReplaceAll(msg, token, "REDACTED"))
	}
	return err
}

// call performs one Bot API method invocation with a JSON body and decodes
// the result envelope.
func (c *Client) call(ctx context.Context, method string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("telegram: encode %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send %s request: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		ErrorCode   int             `json:"error_code"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}

	if !envelope.OK {
		return &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}
