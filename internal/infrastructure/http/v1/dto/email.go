package dto

import (
	"strings"

	"bizbook/internal/domain/email"
)

// SendEmailForm is the multipart form of an outgoing email. Attachments are
// read from the "attachments" file field by the handler.
type SendEmailForm struct {
	To      []string `form:"to" binding:"required"`
	Subject string   `form:"subject" binding:"required"`
	Body    string   `form:"body"`
	HTML    bool     `form:"html"`
}

// ToMessage splits comma separated recipients and builds the domain message.
func (f *SendEmailForm) ToMessage(attachments []email.Attachment) email.Message {
	var to []string
	for _, field := range f.To {
		for _, addr := range strings.Split(field, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
	}
	return email.Message{
		To:          to,
		Subject:     f.Subject,
		Body:        f.Body,
		HTML:        f.HTML,
		Attachments: attachments,
	}
}
