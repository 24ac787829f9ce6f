package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// maxTextRunes caps the Slack payload so oversized runs never hit the
// webhook body limit.
const maxTextRunes = 3500

// Notifier delivers a run summary to whoever is listening.
type Notifier interface {
	Notify(text string) error
}

// SlackClient posts messages to a Slack incoming webhook.
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

func NewSlackClient(webhookURL string) *SlackClient {
	return &SlackClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

// Notify posts text to the webhook, truncating to the Slack-safe
// length on rune boundaries.
func (c *SlackClient) Notify(text string) error {
	runes := []rune(text)
	if len(runes) > maxTextRunes {
		log.Printf("[Notify] Truncating message: %d runes -> %d", len(runes), maxTextRunes)
		text = string(runes[:maxTextRunes])
	}

	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode Slack payload: %w", err)
	}

	resp, err := c.httpClient.Post(c.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to post to Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Slack webhook returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
