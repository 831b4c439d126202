// Package mailer sends report e-mails through Resend.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// emailSender is the subset of the Resend e-mail service used here.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Mailer delivers reports to a fixed recipient list.
type Mailer struct {
	emails emailSender
	from   string
	to     []string
	logger *slog.Logger
}

// New creates a mailer. Without an API key the mailer logs and skips every send.
func New(apiKey, from string, to []string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Mailer{from: from, to: to, logger: logger}
	if apiKey != "" {
		m.emails = resend.NewClient(apiKey).Emails
	}
	return m
}

// Enabled reports whether messages are actually sent.
func (m *Mailer) Enabled() bool {
	return m != nil && m.emails != nil
}

// SendReport e-mails a plain-text summary with the report attached and
// returns the provider message ID.
func (m *Mailer) SendReport(ctx context.Context, subject, summary string, attachment Attachment) (string, error) {
	if !m.Enabled() {
		m.logger.Warn("resend client not configured, skipping report email")
		return "", nil
	}
	if len(m.to) == 0 {
		return "", errors.New("no report recipients configured")
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      m.to,
		Subject: subject,
		Text:    summary,
		Html:    renderHTML(subject, summary),
	}
	if len(attachment.Content) > 0 {
		req.Attachments = []*resend.Attachment{{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Content:     attachment.Content,
		}}
	}

	resp, err := m.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to send report email: %w", err)
	}

	m.logger.Info("report email sent",
		slog.String("id", resp.Id),
		slog.Int("recipients", len(m.to)),
	)
	return resp.Id, nil
}

func renderHTML(title, body string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="font-family: sans-serif;">`)
	fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(title))
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}
	b.WriteString("</body></html>")
	return b.String()
}
