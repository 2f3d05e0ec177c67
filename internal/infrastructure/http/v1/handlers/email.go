package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"bizbook/internal/core/apperror"
	"bizbook/internal/domain/email"
	"bizbook/internal/infrastructure/http/v1/dto"
)

// multipartOverhead is the room left for form fields and boundaries above
// the message size limit.
const multipartOverhead = 64 << 10

// EmailHandler relays mail and lists the delivery history.
type EmailHandler struct {
	*BaseHandler
	service *email.Service
}

// NewEmailHandler creates a new email handler.
func NewEmailHandler(base *BaseHandler, service *email.Service) *EmailHandler {
	return &EmailHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Send handles POST /email (multipart/form-data).
// Fields: to (repeatable or comma separated), subject, body, html, attachments (files).
func (h *EmailHandler) Send(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, email.MaxMessageSize+multipartOverhead)

	var form dto.SendEmailForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, apperror.NewValidation("message exceeds the 5 MB limit").
				WithDetail("limit", email.MaxMessageSize))
			return
		}
		h.Error(c, bindError("invalid email form", err))
		return
	}

	var files []*multipart.FileHeader
	if mf, err := c.MultipartForm(); err == nil && mf != nil {
		files = mf.File["attachments"]
	}

	attachments := make([]email.Attachment, 0, len(files))
	for _, fh := range files {
		a, err := readAttachment(fh)
		if err != nil {
			h.Error(c, apperror.NewValidation("unreadable attachment").
				WithDetail("filename", fh.Filename).
				WithCause(err))
			return
		}
		attachments = append(attachments, a)
	}

	history, err := h.service.Send(c.Request.Context(), form.ToMessage(attachments))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, history)
}

func readAttachment(fh *multipart.FileHeader) (email.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return email.Attachment{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, email.MaxMessageSize+1))
	if err != nil {
		return email.Attachment{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return email.Attachment{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

// History handles GET /email/history
func (h *EmailHandler) History(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	items, total, err := h.service.History(c.Request.Context(), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse[email.History]{
		Items:      items,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	})
}
