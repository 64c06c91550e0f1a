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

const whatsappAPIFormat = "https://graph.facebook.com/v19.0/%s/messages"

type WhatsAppOption func(s *whatsappSender)

func SetWhatsAppBaseURL(url string) WhatsAppOption {
	return func(s *whatsappSender) {
		s.baseURL = url
	}
}

type whatsappSender struct {
	client *retryablehttp.Client

	baseURL  string
	apiToken string
}

// NewWhatsAppSender sends text messages through the WhatsApp Cloud API.
// Missing credentials put it in simulated mode.
func NewWhatsAppSender(apiToken, phoneID string, options ...WhatsAppOption) WhatsAppSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil

	s := &whatsappSender{
		client:   client,
		apiToken: apiToken,
	}

	if phoneID != "" {
		s.baseURL = fmt.Sprintf(whatsappAPIFormat, phoneID)
	}

	for _, option := range options {
		option(s)
	}

	if apiToken == "" || s.baseURL == "" {
		s.apiToken = "" // either credential missing means simulated
	}

	return s
}

func (s *whatsappSender) SendWhatsApp(ctx context.Context, toPhone, body string) (*Result, error) {
	if s.apiToken == "" {
		return &Result{
			Simulated: true,
			Provider:  "whatsapp",
			Args: map[string]string{
				"to":   toPhone,
				"body": body,
			},
		}, nil
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                toPhone,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode whatsapp payload: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, s.baseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}

	req = req.WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Provider: "whatsapp", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &parsed)

	result := &Result{Provider: "whatsapp"}
	if len(parsed.Messages) > 0 {
		result.ID = parsed.Messages[0].ID
	}
	return result, nil
}
