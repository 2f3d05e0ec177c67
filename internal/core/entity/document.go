package entity

import (
	"context"
	"time"

	"bizbook/internal/core/apperror"
)

// Document is a business transaction that posts into the ledgers: purchases,
// sales orders, returns and expenses.
type Document struct {
	Record

	// Number is the business number (PO-20240101-0001, SO-240101-001, ...).
	Number  string    `db:"number" json:"number"`
	Date    time.Time `db:"date" json:"date"`
	Comment string    `db:"comment" json:"comment,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewDocument creates a document dated now.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		Record:    NewRecord(),
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// Stamp records the actor of a write; created also sets the creation fields.
func (d *Document) Stamp(actor string, created bool) {
	now := time.Now().UTC()
	if created {
		d.CreatedBy = actor
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
	}
	d.UpdatedBy = actor
	d.UpdatedAt = now
}

func (d *Document) GetNumber() string { return d.Number }

func (d *Document) SetNumber(number string) { d.Number = number }
