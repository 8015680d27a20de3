package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/wolfman30/leadbox/pkg/logging"
)

// AccountMailer renders and sends the account lifecycle emails.
type AccountMailer struct {
	sender  EmailSender
	product string
	logger  *logging.Logger
}

// NewAccountMailer wraps sender. A nil sender falls back to the stub.
func NewAccountMailer(sender EmailSender, product string, logger *logging.Logger) *AccountMailer {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	if strings.TrimSpace(product) == "" {
		product = DefaultFromName
	}
	return &AccountMailer{sender: sender, product: product, logger: logger}
}

type linkEmail struct {
	Product     string
	Name        string
	Link        string
	ExpiryHours int
}

// SendVerification emails the verify-email link to a new client.
func (m *AccountMailer) SendVerification(ctx context.Context, to, name, link string, expiryHours int) error {
	data := linkEmail{Product: m.product, Name: name, Link: link, ExpiryHours: expiryHours}
	return m.send(ctx, to, name, "Verify your email address", "verification", verifyHTML, verifyText, data)
}

// SendPasswordReset emails the reset-password link.
func (m *AccountMailer) SendPasswordReset(ctx context.Context, to, name, link string, expiryHours int) error {
	data := linkEmail{Product: m.product, Name: name, Link: link, ExpiryHours: expiryHours}
	return m.send(ctx, to, name, "Password Reset Request", "password_reset", resetHTML, resetText, data)
}

func (m *AccountMailer) send(ctx context.Context, to, name, subject, category string, html *htmltemplate.Template, text *texttemplate.Template, data linkEmail) error {
	var htmlBuf, textBuf bytes.Buffer
	if err := html.Execute(&htmlBuf, data); err != nil {
		return fmt.Errorf("notify: render %s html: %w", html.Name(), err)
	}
	if err := text.Execute(&textBuf, data); err != nil {
		return fmt.Errorf("notify: render %s text: %w", text.Name(), err)
	}
	return m.sender.Send(ctx, EmailMessage{
		To:       to,
		ToName:   name,
		Subject:  subject,
		Body:     strings.TrimSpace(textBuf.String()),
		HTML:     htmlBuf.String(),
		Category: category,
	})
}

var verifyHTML = htmltemplate.Must(htmltemplate.New("verify_email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>{{.Product}}</h2>
		<p>{{if .Name}}Hi {{.Name}},{{else}}Hi there,{{end}}</p>
		<p>Please confirm your email address by clicking the link below:</p>
		<p><a href="{{.Link}}">Verify Email</a></p>
		<p>This link will expire in {{.ExpiryHours}} hours.</p>
		<p>If you did not create an account, you can ignore this email.</p>
	</div>
</body>
</html>`))

var verifyText = texttemplate.Must(texttemplate.New("verify_email").Parse(`
{{if .Name}}Hi {{.Name}},{{else}}Hi there,{{end}}

Please confirm your {{.Product}} email address:
{{.Link}}

This link will expire in {{.ExpiryHours}} hours.
`))

var resetHTML = htmltemplate.Must(htmltemplate.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1>Password Reset Request</h1>
		<p>You requested to reset your password. Click the link below to reset it:</p>
		<p><a href="{{.Link}}">Reset Password</a></p>
		<p>This link will expire in {{.ExpiryHours}} hour(s).</p>
		<p>If you didn't request this, please ignore this email.</p>
	</div>
</body>
</html>`))

var resetText = texttemplate.Must(texttemplate.New("password_reset").Parse(`
You requested to reset your {{.Product}} password. Visit this link to choose a new one:
{{.Link}}

This link will expire in {{.ExpiryHours}} hour(s).
If you didn't request this, please ignore this email.
`))
