package mail

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/domain/email"
)

func TestSMTPSender_Send(t *testing.T) {
	s := NewSMTPSender(Config{Host: "smtp.example.com", Port: 587, Username: "bot", Password: "pw", From: "books@example.com"})
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), email.Message{
		To:          []string{"ana@example.com", "bo@example.com"},
		Subject:     "Invoice",
		Body:        "See attached.",
		Attachments: []email.Attachment{{Filename: "report.xlsx", Data: []byte("abc")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "books@example.com", gotFrom)
	assert.Equal(t, []string{"ana@example.com", "bo@example.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "To: ana@example.com, bo@example.com\r\n")
	assert.Contains(t, raw, "Subject: Invoice\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, raw, "See attached.")
	assert.Contains(t, raw, `attachment; filename=report.xlsx`)
	assert.Contains(t, raw, "YWJj\r\n")
}

func TestSMTPSender_NotConfigured(t *testing.T) {
	err := NewSMTPSender(Config{}).Send(context.Background(), email.Message{To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestWriteBase64_Wraps(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeBase64(&b, make([]byte, 100)))
	lines := strings.Split(strings.TrimSuffix(b.String(), "\r\n"), "\r\n")
	assert.Len(t, lines, 2)
	assert.Len(t, lines[0], 76)
}
