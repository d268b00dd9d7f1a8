package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

var ErrMailerDisabled = errors.New("email delivery is not configured")

type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer delivers mail through the Resend HTTP API.
type ResendMailer struct {
	emails emailSender
}

// NewMailer returns a Resend-backed mailer, or one that always fails with
// ErrMailerDisabled when no API key is configured.
func NewMailer(apiKey string) Mailer {
	if strings.TrimSpace(apiKey) == "" {
		return disabledMailer{}
	}
	client := resend.NewClient(apiKey)
	return &ResendMailer{emails: client.Emails}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", errors.New("recipient is required")
	}
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	}
	resp, err := m.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return resp.Id, nil
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Message) (string, error) {
	return "", ErrMailerDisabled
}
