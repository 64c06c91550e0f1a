package provider

import (
	"context"
	"fmt"
)

// Result describes the outcome of a single dispatch. Simulated results
// mean credentials were absent and no network call was made; that is
// dry-run mode, not an error.
type Result struct {
	Simulated bool              `json:"simulated"`
	Provider  string            `json:"provider"`
	ID        string            `json:"id,omitempty"`
	Args      map[string]string `json:"args,omitempty"`
}

// Error carries the HTTP status and raw response body of a failed
// provider call for diagnostics. No retry is attempted at this layer.
type Error struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// EmailMessage is the payload for a single outbound email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) (*Result, error)
}

type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, toPhone, body string) (*Result, error)
}
