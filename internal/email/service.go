package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"time"

	"github.com/edwinbf09/daily-activities/internal/config"
	"github.com/edwinbf09/daily-activities/internal/logging"
	"github.com/edwinbf09/daily-activities/templates"
)

var resetTemplate = template.Must(template.ParseFS(templates.EmailFS, "email/password_reset.html"))

// Service sends mail through an SMTP relay
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
	resetTTL     time.Duration
	send         func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(cfg config.EmailConfig, resetTTL time.Duration) *Service {
	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		fromEmail:    cfg.SMTPUser,
		frontendURL:  cfg.FrontendURL,
		resetTTL:     resetTTL,
		send:         smtp.SendMail,
	}
}

// SendPasswordResetEmail mails the reset link to toEmail.
// Called from a goroutine; ctx only carries the logger.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := RenderPasswordReset(ResetLink(s.frontendURL, token), s.resetTTL)
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return err
	}

	if err := s.sendEmail(toEmail, "Reset your Nuestra Agenda password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.fromEmail, []string{to}, msg)
}

// LogSender writes reset links to the log instead of mailing them. It is
// used when no SMTP relay is configured.
type LogSender struct {
	frontendURL string
	logger      *logging.Logger
}

func NewLogSender(frontendURL string, logger *logging.Logger) *LogSender {
	return &LogSender{frontendURL: frontendURL, logger: logger}
}

func (l *LogSender) SendPasswordResetEmail(_ context.Context, toEmail, token string) error {
	l.logger.Info("password reset requested (smtp disabled)",
		"email", toEmail,
		"reset_link", ResetLink(l.frontendURL, token),
	)
	return nil
}

// ResetLink builds the frontend URL that redeems token.
func ResetLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", frontendURL, url.QueryEscape(token))
}

// RenderPasswordReset renders the HTML body of the reset mail.
func RenderPasswordReset(resetLink string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	data := struct {
		ResetLink string
		ExpiresIn string
	}{
		ResetLink: resetLink,
		ExpiresIn: humanDuration(ttl),
	}

	if err := resetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0, d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
}
