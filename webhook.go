package dyndns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// WebhookNotifier posts messages to a Discord-compatible webhook as {"content": text}.
type WebhookNotifier struct {
	httpClient *http.Client
}

// NewWebhookNotifier returns a notifier that sends through c, or http.DefaultClient when c is nil.
func NewWebhookNotifier(c *http.Client) *WebhookNotifier {
	return &WebhookNotifier{httpClient: c}
}

func (n *WebhookNotifier) SetHTTPClient(c *http.Client) { n.httpClient = c }

type webhookMessage struct {
	Content string `json:"content"`
}

// PostMessage implements Notifier.
// Any response outside the 2xx range is an error; the message is not resent.
func (n *WebhookNotifier) PostMessage(ctx context.Context, webhookURL, text string) error {
	body, err := json.Marshal(webhookMessage{Content: text})
	if err != nil {
		return &NotifyError{Err: fmt.Errorf("error encoding message: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return &NotifyError{Err: errors.New("error creating request: invalid webhook URL")}
	}
	req.Header.Set("Content-Type", "application/json")

	httpclient := n.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}
	resp, err := httpclient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, secret included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &NotifyError{Err: &NetworkError{URL: redactURL(req), Err: err}}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &NotifyError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			Err:        fmt.Errorf("http request returned %s", resp.Status),
		}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// webhook URLs carry their secret in the path, keep it out of errors and logs.
func redactURL(req *http.Request) string {
	return req.URL.Scheme + "://" + req.URL.Host
}
