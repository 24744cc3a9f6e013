package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"html"`
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	//go:embed templates/password_reset.html
	emailTemplates embed.FS

	passwordResetTemplate = template.Must(template.ParseFS(emailTemplates, "templates/password_reset.html"))
)

// PasswordResetMessage renders the email carrying a reset code.
func PasswordResetMessage(to string, code string, ttl time.Duration) (Message, error) {
	var body bytes.Buffer
	data := struct {
		Code      string
		ExpiresIn string
	}{Code: code, ExpiresIn: ttl.String()}

	if err := passwordResetTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render password reset template: %w", err)
	}

	return Message{
		To:      to,
		Subject: "Password Reset",
		Body:    body.String(),
		HTML:    true,
	}, nil
}
