package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Email delivers notifications over SMTP with PLAIN auth.
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
}

func NewEmail(host string, port int, username, password, from, to string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(_ context.Context, subject, message string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", e.to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(message)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	if err := smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", e.to, err)
	}
	return nil
}
