package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/worknest/worknest/internal/config"
)

// SMTPSender delivers email through an SMTP relay. With UseTLS the
// connection uses implicit TLS (port 465) and falls back to STARTTLS.
type SMTPSender struct {
	cfg config.SMTPConfig
	now func() time.Time
}

// NewSMTPSender creates an SMTPSender for cfg
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, now: time.Now}
}

// buildMessage renders RFC 5322 headers and the HTML body.
func (s *SMTPSender) buildMessage(to []string, subject, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// envelopeFrom strips a display name so "Worknest <no-reply@x>" becomes the
// bare address MAIL FROM expects.
func envelopeFrom(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

// Send implements Sender. net/smtp is not context aware, so ctx is only
// checked before dialling.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject, html string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(to, subject, html)
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	from := envelopeFrom(s.cfg.From)

	if s.cfg.UseTLS {
		return sendMailTLS(addr, s.cfg.Host, auth, from, to, msg)
	}
	return smtp.SendMail(addr, auth, from, to, msg)
}

// sendMailTLS connects via implicit TLS and sends msg. If the TLS dial fails
// it falls back to smtp.SendMail, which upgrades with STARTTLS when offered.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
