package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadflow/internal/usecase"
)

// Transport delivers a rendered message. EmailSender does it over SMTP; the Resend
// client does it over HTTP.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

func NewEmailSender(host string, port int, user, password string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
	}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	// gomail has no context support; the dial keeps running if ctx expires first.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send SMTP email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send SMTP email: %w", ctx.Err())
	}
}

// FollowUpMailer sends campaign emails as plain text through any Transport.
type FollowUpMailer struct {
	Transport Transport
	From      string
}

func NewFollowUpMailer(transport Transport, from string) *FollowUpMailer {
	return &FollowUpMailer{Transport: transport, From: from}
}

func (m *FollowUpMailer) SendFollowUp(ctx context.Context, email usecase.FollowUpEmail) error {
	return m.Transport.Send(ctx, Message{
		From:    m.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Text:    email.Text,
	})
}
