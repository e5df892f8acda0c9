// Package mail delivers the transactional emails Worknest sends during
// account confirmation, organisation registration and employee invitation.
package mail

import (
	"context"
	"log/slog"

	"github.com/worknest/worknest/internal/config"
)

// Sender delivers a rendered HTML email.
type Sender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// LogSender writes emails to the log instead of delivering them. It is used
// when notifications are disabled, typically in development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender that writes to logger, or to the slog
// default when logger is nil.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send implements Sender
func (s *LogSender) Send(ctx context.Context, to []string, subject, html string) error {
	s.logger.InfoContext(ctx, "email not delivered (notifications disabled)",
		"to", to, "subject", subject, "bytes", len(html))
	s.logger.DebugContext(ctx, "email body", "subject", subject, "html", html)
	return nil
}

// NewSender returns an SMTPSender when notifications are enabled and a
// LogSender otherwise.
func NewSender(cfg config.NotificationsConfig) Sender {
	if !cfg.Enabled {
		return NewLogSender(nil)
	}
	return NewSMTPSender(cfg.SMTP)
}
