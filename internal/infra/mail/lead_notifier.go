package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/xavierca1/leadflow/internal/usecase"
)

//go:embed templates/*
var templateFS embed.FS

var (
	leadHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/lead.html"))
	leadText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/lead.txt"))
)

// LeadNotifier emails the business owner about a new qualified lead.
type LeadNotifier struct {
	Transport    Transport
	From         string
	To           []string
	BusinessName string
	PhotosEmail  string
	PhoneRegion  string
}

func NewLeadNotifier(transport Transport, from string, to []string, businessName, photosEmail, phoneRegion string) *LeadNotifier {
	return &LeadNotifier{
		Transport:    transport,
		From:         from,
		To:           to,
		BusinessName: businessName,
		PhotosEmail:  photosEmail,
		PhoneRegion:  phoneRegion,
	}
}

func (n *LeadNotifier) NotifyLead(ctx context.Context, notification usecase.LeadNotification) error {
	msg, err := n.Render(notification)
	if err != nil {
		return err
	}
	if err := n.Transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send lead email: %w", err)
	}
	log.Info().Str("subject", msg.Subject).Int("recipients", len(msg.To)).Msg("lead email sent")
	return nil
}

// Render builds the owner email without sending it.
func (n *LeadNotifier) Render(notification usecase.LeadNotification) (Message, error) {
	c := notification.Candidate
	data := LeadEmailData{
		BusinessName: n.BusinessName,
		Priority:     c.Priority,
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.TrimSpace(c.Email),
		Phone:        strings.TrimSpace(c.Phone),
		Address:      strings.TrimSpace(c.Address),
		Budget:       strings.TrimSpace(c.Budget),
		Scope:        strings.TrimSpace(c.Scope),
		Notes:        strings.TrimSpace(c.Notes),
		PhotosEmail:  n.PhotosEmail,
	}
	data.Phone, data.PhoneLink = formatPhone(data.Phone, n.PhoneRegion)

	var html, text bytes.Buffer
	if err := leadHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render lead email html: %w", err)
	}
	if err := leadText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render lead email text: %w", err)
	}

	return Message{
		From:    n.From,
		To:      n.To,
		Subject: LeadSubject(c),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func LeadSubject(c usecase.LeadCandidate) string {
	subject := fmt.Sprintf("[NEW LEAD] %s - %s - %s",
		strings.TrimSpace(c.Address), strings.TrimSpace(c.Name), strings.TrimSpace(c.Budget))
	if c.Priority {
		return "[PRIORITY] " + subject
	}
	return subject
}

// formatPhone returns the number in international format plus a tel: link when it
// parses for the region, and the raw text with no link otherwise.
func formatPhone(raw, region string) (string, htmltemplate.URL) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw, ""
	}
	display := phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	link := "tel:" + phonenumbers.Format(num, phonenumbers.E164)
	return display, htmltemplate.URL(link)
}
