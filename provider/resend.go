package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

const resendAPI = "https://api.resend.com/emails"

type ResendOption func(s *resendSender)

func SetResendBaseURL(url string) ResendOption {
	return func(s *resendSender) {
		s.baseURL = url
	}
}

type resendSender struct {
	client *retryablehttp.Client

	baseURL string
	apiKey  string
	from    string
}

// NewResendSender sends email through the Resend REST API. With an
// empty apiKey the sender runs in simulated mode and never touches the
// network.
func NewResendSender(apiKey, from string, options ...ResendOption) EmailSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 0 // failures are recorded upstream, never retried here
	client.Logger = nil

	s := &resendSender{
		client:  client,
		baseURL: resendAPI,
		apiKey:  apiKey,
		from:    from,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *resendSender) SendEmail(ctx context.Context, msg EmailMessage) (*Result, error) {
	if s.apiKey == "" {
		return &Result{
			Simulated: true,
			Provider:  "resend",
			Args: map[string]string{
				"to":      msg.To,
				"subject": msg.Subject,
			},
		}, nil
	}

	payload := map[string]interface{}{
		"from":    s.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.Text != "" {
		payload["text"] = msg.Text
	}
	if msg.ReplyTo != "" {
		payload["reply_to"] = msg.ReplyTo
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode resend payload: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Provider: "resend", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &parsed)

	return &Result{Provider: "resend", ID: parsed.ID}, nil
}
