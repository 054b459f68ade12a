// Package mailer delivers transactional email. Delivery is an external
// collaborator: services depend on the Mailer interface and the SMTP
// implementation is wired in at the composition root.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
)

// Mailer sends a verification code to an email address.
type Mailer interface {
	SendVerificationCode(to, username, code string) error
}

const verificationTemplate = `<html>
  <body style="font-family: sans-serif;">
    <h2>Hello {{.Username}},</h2>
    <p>Thank you for registering with Whisperbox. Use the following code to
    verify your email address:</p>
    <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
    <p>The code expires in one hour. If you did not request this, you can
    ignore this email.</p>
  </body>
</html>`

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	tmpl     *template.Template
}

// NewSMTPMailer creates a mailer for the given relay settings.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		tmpl:     template.Must(template.New("verification").Parse(verificationTemplate)),
	}
}

// SendVerificationCode delivers the code and blocks until the relay accepts
// or rejects the message.
func (m *SMTPMailer) SendVerificationCode(to, username, code string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("smtp relay is not configured")
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, map[string]string{"Username": username, "Code": code}); err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n"
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: Whisperbox <%s>\r\n"+
		"Subject: Whisperbox | Verification Code\r\n"+
		"%s%s", to, m.from, mime, body.String()))

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send verification email to %s: %w", to, err)
	}
	return nil
}
