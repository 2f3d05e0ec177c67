// Package party provides the Customer and Supplier catalogs. Both are
// parties of a document and share one model; they differ in table, code
// prefix and the document side that references them.
package party

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Kind tells customers from suppliers.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindSupplier Kind = "supplier"
)

// Party is a customer or a supplier. Code is CUS#### or SUP####.
type Party struct {
	entity.Catalog

	Email   string `db:"email" json:"email"`
	Phone   string `db:"phone" json:"phone"`
	Address string `db:"address" json:"address"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a party with a generated id. The code is assigned on create.
func New(name, email, phone, address string) *Party {
	now := time.Now().UTC()
	return &Party{
		Catalog:   entity.NewCatalog("", strings.TrimSpace(name)),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		Address:   strings.TrimSpace(address),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable interface.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.Email == "" {
		return apperror.NewValidation("email is required").
			WithDetail("field", "email")
	}
	if !emailRE.MatchString(p.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}
	return nil
}

// NormalizePhone validates phone against region and returns it in E.164.
// An empty phone is allowed.
func NormalizePhone(phone, region string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	num, err := libphonenumber.Parse(phone, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return "", apperror.NewValidation("invalid phone number").
			WithDetail("field", "phone").
			WithDetail("region", region)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
