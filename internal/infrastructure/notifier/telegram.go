package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrDeliveryFailed is returned when the notification channel rejects
// or fails to accept a message. Delivery is best-effort; there are no
// retries at this layer.
var ErrDeliveryFailed = errors.New("notification delivery failed")

const defaultBaseURL = "https://api.telegram.org"

// Telegram sends plain-text messages to a fixed chat via the Telegram
// Bot API sendMessage endpoint.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTelegramWithBaseURL is used by tests to point at a fake API server.
func NewTelegramWithBaseURL(token, chatID, baseURL string) *Telegram {
	t := NewTelegram(token, chatID)
	t.baseURL = baseURL
	return t
}

// Notify posts text to the configured chat. Any transport error or
// non-200 response maps to ErrDeliveryFailed.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, resp.StatusCode, string(body))
	}

	return nil
}
