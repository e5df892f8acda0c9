package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/worknest/worknest/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names, also used as the metric label.
const (
	TemplateConfirmation           = "confirmation"
	TemplateVerified               = "verified"
	TemplateOrganisationRegistered = "organisation_registered"
	TemplateInvitation             = "invitation"
	TemplatePasswordChanged        = "password_changed"
)

var subjects = map[string]string{
	TemplateConfirmation:           "Confirm your Work Nest account",
	TemplateVerified:               "Your Work Nest account is verified",
	TemplateOrganisationRegistered: "Your organisation is registered on Work Nest",
	TemplateInvitation:             "Invitation to join Work Nest",
	TemplatePasswordChanged:        "Your Work Nest password was changed",
}

type templateData struct {
	Subject      string
	Name         string
	Organisation string
	URL          string
	Code         string
	Password     string
}

// Mailer renders the transactional templates and hands them to a Sender.
type Mailer struct {
	sender    Sender
	templates map[string]*template.Template
	publicURL string
	clientURL string
}

// NewMailer parses the embedded templates. publicURL is this server's public
// base URL, clientURL the web client's.
func NewMailer(sender Sender, publicURL, clientURL string) (*Mailer, error) {
	m := &Mailer{
		sender:    sender,
		templates: make(map[string]*template.Template, len(subjects)),
		publicURL: strings.TrimRight(publicURL, "/"),
		clientURL: strings.TrimRight(clientURL, "/"),
	}
	for name := range subjects {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		m.templates[name] = t
	}
	return m, nil
}

// ConfirmationURL is the link a user follows to confirm their email.
func (m *Mailer) ConfirmationURL(token, code string) string {
	return fmt.Sprintf("%s/api/v1/user/confirmation/%s?code=%s", m.publicURL, url.PathEscape(token), url.QueryEscape(code))
}

// InvitationURL is the web client page where an invited employee sets their password.
func (m *Mailer) InvitationURL(token, code string) string {
	return fmt.Sprintf("%s/invitation/%s?code=%s", m.clientURL, url.PathEscape(token), url.QueryEscape(code))
}

// Render executes a template by name.
func (m *Mailer) Render(name string, data templateData) (subject, body string, err error) {
	t, ok := m.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	data.Subject = subjects[name]
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return data.Subject, buf.String(), nil
}

func (m *Mailer) send(ctx context.Context, name, to string, data templateData) error {
	subject, body, err := m.Render(name, data)
	if err == nil {
		err = m.sender.Send(ctx, []string{to}, subject, body)
	}
	if err != nil {
		telemetry.EmailsSentTotal.WithLabelValues(name, "failed").Inc()
		slog.ErrorContext(ctx, "failed to send email", "template", name, "to", to, "error", err)
		return err
	}
	telemetry.EmailsSentTotal.WithLabelValues(name, "sent").Inc()
	return nil
}

// SendConfirmation mails the confirmation link and code to a new user
func (m *Mailer) SendConfirmation(ctx context.Context, to, name, token, code string) error {
	return m.send(ctx, TemplateConfirmation, to, templateData{
		Name: name,
		URL:  m.ConfirmationURL(token, code),
		Code: code,
	})
}

// SendAccountVerified tells a user their email is confirmed
func (m *Mailer) SendAccountVerified(ctx context.Context, to, name string) error {
	return m.send(ctx, TemplateVerified, to, templateData{Name: name})
}

// SendOrganisationRegistered welcomes an organisation's admin and carries
// their confirmation link
func (m *Mailer) SendOrganisationRegistered(ctx context.Context, to, name, organisation, token, code string) error {
	return m.send(ctx, TemplateOrganisationRegistered, to, templateData{
		Name:         name,
		Organisation: organisation,
		URL:          m.ConfirmationURL(token, code),
		Code:         code,
	})
}

// SendInvitation mails an invited employee their temporary password and the
// link to replace it
func (m *Mailer) SendInvitation(ctx context.Context, to, name, organisation, token, code, tempPassword string) error {
	return m.send(ctx, TemplateInvitation, to, templateData{
		Name:         name,
		Organisation: organisation,
		URL:          m.InvitationURL(token, code),
		Password:     tempPassword,
	})
}

// SendPasswordChanged notifies a user of a password change
func (m *Mailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.send(ctx, TemplatePasswordChanged, to, templateData{Name: name})
}
