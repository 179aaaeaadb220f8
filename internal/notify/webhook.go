package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/dexsentinel/internal/model"
	httpClient "github.com/Alias1177/dexsentinel/internal/platform/http"
)

// Webhook posts text messages to a WeChat Work style group robot webhook.
type Webhook struct {
	url        string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

type webhookText struct {
	Content string `json:"content"`
}

type webhookPayload struct {
	MsgType string      `json:"msgtype"`
	Text    webhookText `json:"text"`
}

type webhookResponse struct {
	ErrCode *int   `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// NewWebhook creates a webhook notifier for url.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url: url,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout: timeout,
		}),
		logger: log.With().Str("component", "webhook_notifier").Logger(),
	}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{MsgType: "text", Text: webhookText{Content: text}})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %v", model.ErrNotifyFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", model.ErrNotifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: webhook: %v", model.ErrNotifyFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", model.ErrNotifyFailed, err)
	}

	w.logger.Debug().Int("status", resp.StatusCode).Str("response", string(raw)).Msg("Webhook response")

	// Sinks that answer with plain text are treated as accepted.
	var r webhookResponse
	if json.Unmarshal(raw, &r) == nil && r.ErrCode != nil && *r.ErrCode != 0 {
		return fmt.Errorf("%w: webhook errcode %d: %s", model.ErrNotifyFailed, *r.ErrCode, r.ErrMsg)
	}
	return nil
}
