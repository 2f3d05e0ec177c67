package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bizbook/internal/core/apperror"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgSerializationFail   = "40001"
)

// uniqueFields maps unique constraint names to the API field they protect.
var uniqueFields = map[string]string{
	"cat_customers_email_key":         "email",
	"cat_suppliers_email_key":         "email",
	"cat_customers_code_key":          "customerId",
	"cat_suppliers_code_key":          "supplierId",
	"cat_products_code_key":           "productId",
	"cat_products_barcode_key":        "barcode",
	"cat_warehouses_name_key":         "name",
	"cat_brands_name_key":             "name",
	"cat_categories_name_key":         "name",
	"doc_purchases_number_key":        "orderId",
	"doc_sales_orders_number_key":     "orderNumber",
	"doc_purchase_returns_number_key": "returnId",
	"doc_sales_returns_number_key":    "returnId",
	"doc_expenses_number_key":         "expenseNumber",
	"led_payables_invoice_key":        "invoiceNumber",
	"led_receivables_invoice_key":     "invoiceNumber",
	"users_email_key":                 "email",
	"roles_code_key":                  "code",
}

// MapError translates driver errors into AppErrors for the given entity.
// Errors that are already AppErrors pass through unchanged.
func MapError(err error, entityName string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entityName, nil)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = constraintField(pgErr.ConstraintName)
		}
		return apperror.NewDuplicate(entityName, field, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict(entityName + " is referenced by other records").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation(entityName+" violates constraint "+pgErr.ConstraintName).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgSerializationFail:
		return apperror.NewConcurrentModification(entityName, nil).WithCause(err)
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// constraintField guesses the column from "<table>_<column>_key".
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}
