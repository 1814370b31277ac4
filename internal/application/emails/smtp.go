package emails

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string

	sendMail sendMailFunc
}

func (s *SMTPSender) Send(ctx context.Context, toEmail, subject, html string) error {
	if s.Host == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.Username != "" && s.Password != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	port := s.Port
	if port == "" {
		port = "587"
	}
	from := s.From
	if from == "" {
		from = "no-reply@" + s.Host
	}
	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	addr := fmt.Sprintf("%s:%s", s.Host, port)
	return send(addr, auth, from, []string{toEmail}, buildMessage(from, toEmail, subject, html))
}

func buildMessage(from, to, subject, html string) []byte {
	// header injection guard
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			html,
	)
}
