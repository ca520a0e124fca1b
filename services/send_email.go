package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SMTPConfig is the mail server configuration read from the email settings.
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	From      string
	Recipient string
}

// IsConfigured returns true if mail can be sent
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain text mail through the SMTP server configured in the
// email settings. Settings are read on every send so changes apply at once.
type Mailer struct {
	logger   zerolog.Logger
	settings EmailSettings
	send     sendMailFunc
}

func NewMailer(settings EmailSettings) *Mailer {
	return &Mailer{
		logger:   log.With().Str("service", "mailer").Logger(),
		settings: settings,
		send:     smtp.SendMail,
	}
}

// SendEmail sends a plain text email
// Parameters:
//   - subject: The email subject line
//   - body: The plain text body
//   - recipients: A list of recipient email addresses
func (m *Mailer) SendEmail(subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	cfg := m.settings.SMTP()
	if !cfg.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(recipients, ", "),
		cfg.From,
		subject,
		body,
	))

	if err := m.send(cfg.Host+":"+cfg.Port, auth, cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", cfg.Host, err)
	}

	m.logger.Info().Strs("to", recipients).Str("subject", subject).Msg("sent email")
	return nil
}

// NotifyNewComment tells the configured recipient about a new comment.
// Nothing is sent when no recipient is set; failures are only logged.
func (m *Mailer) NotifyNewComment(ctx context.Context, post *models.BlogPost, comment *models.Comment) {
	recipient := m.settings.Get(EmailRecipient)
	if recipient == "" {
		return
	}

	subject := fmt.Sprintf("New comment on %q", post.Title)
	body := fmt.Sprintf("%s wrote on %s:\n\n%s\n", comment.Author, post.Path, comment.Text)
	if comment.SpamStatus == models.SpamStatusSpam {
		subject = "[spam] " + subject
	}

	if err := m.SendEmail(subject, body, []string{recipient}); err != nil {
		m.logger.Warn().Err(err).Str("comment", comment.Path).Msg("could not send comment notification")
	}
}
