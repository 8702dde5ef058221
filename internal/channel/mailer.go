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

// HTTPMailer delivers email through the provider's REST API.
type HTTPMailer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPMailer creates a mailer client. The client timeout bounds every
// send so a stuck provider cannot stall a poller cycle indefinitely.
func NewHTTPMailer(baseURL, apiKey string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPMailer{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"html":    htmlBody,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
