package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type SMTPSender struct {
	Host   string
	Port   string
	User   string
	Pass   string
	From   string
	UseTLS bool
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.Host, s.Port)
	raw := buildMessage(s.From, msg)

	var auth smtp.Auth
	if s.User != "" || s.Pass != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	if s.UseTLS {
		return s.sendTLS(addr, auth, msg.To, raw)
	}

	return smtp.SendMail(addr, auth, s.From, []string{msg.To}, raw)
}

func (s *SMTPSender) sendTLS(addr string, auth smtp.Auth, to string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return err
	}
	defer c.Quit()
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(s.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

func buildMessage(from string, msg Message) []byte {
	contentType := "text/plain; charset=\"utf-8\""
	if msg.HTML {
		contentType = "text/html; charset=\"utf-8\""
	}

	var b strings.Builder
	// Fixed header order keeps the output stable.
	for _, h := range [][2]string{
		{"From", from},
		{"To", msg.To},
		{"Subject", msg.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", contentType},
	} {
		b.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
