// Package email relays messages over SMTP and keeps a history of every attempt.
package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"bizbook/internal/core/apperror"
	appctx "bizbook/internal/core/context"
	"bizbook/internal/core/id"
	"bizbook/pkg/logger"
)

// MaxMessageSize bounds body plus attachments.
const MaxMessageSize = 5 << 20

// Delivery outcomes stored in the history.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outgoing email.
type Message struct {
	To          []string
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

func (m *Message) size() int {
	n := len(m.Body)
	for _, a := range m.Attachments {
		n += len(a.Data)
	}
	return n
}

// Validate checks recipients, subject and the size limit.
func (m *Message) Validate() error {
	if len(m.To) == 0 {
		return apperror.NewValidation("at least one recipient is required").WithDetail("field", "to")
	}
	for i, to := range m.To {
		addr, err := mail.ParseAddress(strings.TrimSpace(to))
		if err != nil {
			return apperror.NewValidation("recipient is not a valid email").WithDetail("to", to)
		}
		m.To[i] = addr.Address
	}
	if strings.TrimSpace(m.Subject) == "" {
		return apperror.NewValidation("subject is required").WithDetail("field", "subject")
	}
	if m.size() > MaxMessageSize {
		return apperror.NewValidation("message exceeds the 5 MB limit").WithDetail("size", m.size())
	}
	return nil
}

// History records one delivery attempt.
type History struct {
	ID          id.ID     `db:"id" json:"id"`
	Recipients  []string  `db:"recipients" json:"recipients"`
	Subject     string    `db:"subject" json:"subject"`
	Body        string    `db:"body" json:"body"`
	Attachments []string  `db:"attachments" json:"attachments"`
	Status      string    `db:"status" json:"status"`
	Error       string    `db:"error" json:"error,omitempty"`
	SentBy      string    `db:"sent_by" json:"sentBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Repository stores the history.
type Repository interface {
	Create(ctx context.Context, h *History) error
	List(ctx context.Context, limit, offset int) ([]History, int64, error)
}

// Service sends mail and logs every attempt.
type Service struct {
	sender Sender
	repo   Repository
}

// NewService creates a new email service.
func NewService(sender Sender, repo Repository) *Service {
	return &Service{sender: sender, repo: repo}
}

// Send delivers msg. The attempt is stored whether or not delivery succeeds.
func (s *Service) Send(ctx context.Context, msg Message) (*History, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	h := &History{
		ID:          id.New(),
		Recipients:  msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Attachments: make([]string, 0, len(msg.Attachments)),
		Status:      StatusSent,
		SentBy:      appctx.Actor(ctx),
		CreatedAt:   time.Now().UTC(),
	}
	for _, a := range msg.Attachments {
		h.Attachments = append(h.Attachments, a.Filename)
	}

	sendErr := s.sender.Send(ctx, msg)
	if sendErr != nil {
		h.Status = StatusFailed
		h.Error = sendErr.Error()
	}

	if err := s.repo.Create(ctx, h); err != nil {
		logger.Error(ctx, "failed to store email history", "subject", msg.Subject, "error", err)
		if sendErr == nil {
			return h, nil
		}
	}

	if sendErr != nil {
		logger.Warn(ctx, "email delivery failed", "recipients", len(msg.To), "error", sendErr)
		return h, apperror.NewUpstream("mail server", fmt.Errorf("send email: %w", sendErr))
	}
	logger.Info(ctx, "email sent", "recipients", len(msg.To), "attachments", len(msg.Attachments))
	return h, nil
}

// History lists past attempts, newest first.
func (s *Service) History(ctx context.Context, limit, offset int) ([]History, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.List(ctx, limit, offset)
}
