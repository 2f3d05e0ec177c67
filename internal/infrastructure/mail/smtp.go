// Package mail delivers email over SMTP.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"bizbook/internal/domain/email"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender implements email.Sender with net/smtp.
type SMTPSender struct {
	cfg  Config
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender. Auth is used when a username is set.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg, now: time.Now, send: smtp.SendMail}
}

// Send builds a MIME message and hands it to the server.
func (s *SMTPSender) Send(ctx context.Context, msg email.Message) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	raw, err := s.build(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.send(addr, auth, s.cfg.From, msg.To, raw) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// build renders msg as multipart/mixed with base64 attachments.
func (s *SMTPSender) build(msg email.Message) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", s.cfg.From)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", s.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "multipart/mixed; boundary="+w.Boundary())
	buf.WriteString("\r\n")

	bodyType := "text/plain; charset=utf-8"
	if msg.HTML {
		bodyType = "text/html; charset=utf-8"
	}
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {bodyType},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, fmt.Errorf("create body part: %w", err)
	}
	if _, err := part.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}

	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {ct},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", a.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 wraps encoded lines at 76 characters.
func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 76 {
		if _, err := w.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return err
		}
		enc = enc[76:]
	}
	_, err := w.Write([]byte(enc + "\r\n"))
	return err
}
