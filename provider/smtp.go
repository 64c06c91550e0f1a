package provider

import (
	"context"

	"gopkg.in/gomail.v2"
)

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender sends email over plain SMTP (gomail). Used when no
// REST email provider is configured; with no host set it degrades to
// simulated mode like the REST adapters.
func NewSMTPSender(host string, port int, username, password, from string) EmailSender {
	return &smtpSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *smtpSender) SendEmail(ctx context.Context, msg EmailMessage) (*Result, error) {
	if s.host == "" {
		return &Result{
			Simulated: true,
			Provider:  "smtp",
			Args: map[string]string{
				"to":      msg.To,
				"subject": msg.Subject,
			},
		}, nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	if msg.Text != "" {
		m.AddAlternative("text/plain", msg.Text)
	}
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return nil, err
	}

	return &Result{Provider: "smtp"}, nil
}
