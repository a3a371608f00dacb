package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/thriftshop/storefront/pkg/logger"
)

var ErrInvalidMessage = errors.New("mail message missing recipient or subject")

type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainText string
	HTML      string
}

func (m Message) validate() error {
	if m.ToEmail == "" || m.Subject == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Mailer delivers transactional mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid delivers through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGrid(apiKey, fromAddress, fromName string) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if fromAddress == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}, nil
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	html := msg.HTML
	if html == "" {
		html = "<pre>" + msg.PlainText + "</pre>"
	}
	message := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.ToEmail), msg.PlainText, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		logger.Error("SendGrid rejected message", nil, map[string]interface{}{
			"status":  response.StatusCode,
			"body":    response.Body,
			"subject": msg.Subject,
		})
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	logger.Info("Mail sent", map[string]interface{}{
		"status":  response.StatusCode,
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	})
	return nil
}

// LogMailer only logs messages. It is used when no SendGrid key is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	logger.Info("Mail delivery disabled, message logged", map[string]interface{}{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
	})
	return nil
}
