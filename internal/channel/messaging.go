package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MessagingClient delivers WhatsApp-style texts through the provider's
// REST API and reports the provider-assigned message id.
type MessagingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMessagingClient(baseURL, apiKey string, timeout time.Duration) *MessagingClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MessagingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *MessagingClient) SendText(ctx context.Context, to, body string) (string, error) {
	payload := map[string]string{
		"to":   to,
		"body": body,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/texts", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("messaging API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return out.MessageID, nil
}
