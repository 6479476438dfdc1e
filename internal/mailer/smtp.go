package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type templateData struct {
	Subject  string
	Username string
	Host     string
	Token    string
	Link     string
}

// Render returns the subject and HTML body for msg.
func Render(msg Message) (string, string, error) {
	s, err := msg.info()
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	err = templates.ExecuteTemplate(&buf, s.template, templateData{
		Subject:  s.subject,
		Username: msg.ToUsername,
		Host:     msg.BaseURL,
		Token:    msg.Token,
		Link:     msg.Link(),
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s: %w", s.template, err)
	}
	return s.subject, buf.String(), nil
}

type SMTPSender struct {
	cfg     config.MailConfig
	timeout time.Duration
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: 10 * time.Second}
}

func (s *SMTPSender) from() string {
	return (&mail.Address{Name: s.cfg.FromName, Address: s.cfg.From}).String()
}

func (s *SMTPSender) buildMessage(msg Message) ([]byte, error) {
	subject, body, err := Render(msg)
	if err != nil {
		return nil, err
	}
	to := (&mail.Address{Name: msg.ToUsername, Address: msg.ToEmail}).String()

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from())
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes(), nil
}

func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	tlsCfg := &tls.Config{
		ServerName:         s.cfg.Server,
		InsecureSkipVerify: !s.cfg.ValidateCerts,
	}
	dialer := &net.Dialer{Timeout: s.timeout}

	var conn net.Conn
	var err error
	if s.cfg.SSLTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}
	if s.cfg.StartTLS && !s.cfg.SSLTLS {
		if err := c.StartTLS(tlsCfg); err != nil {
			c.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}
	return c, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	data, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	c, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if s.cfg.UseCredentials {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := c.Rcpt(msg.ToEmail); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return c.Quit()
}
