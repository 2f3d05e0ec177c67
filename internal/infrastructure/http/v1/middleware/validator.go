package middleware

import (
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"bizbook/internal/domain/documents/expense"
	"bizbook/internal/domain/documents/purchase"
	"bizbook/internal/domain/documents/returns"
	"bizbook/internal/domain/documents/sales_order"
	"bizbook/internal/domain/ledger"
)

// RegisterValidators adds the binding tags used by request DTOs to gin's validator:
//
//	money_positive         decimal greater than zero
//	money_nonneg           decimal greater than or equal to zero
//	payment_type           Cash, Bank or Cheque
//	business_status=<doc>  a status of purchase, sales_order, return or expense
//
// Empty strings pass payment_type and business_status; the domain applies defaults.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	for tag, fn := range map[string]validator.Func{
		"money_positive":  moneyPositive,
		"money_nonneg":    moneyNonNegative,
		"payment_type":    paymentType,
		"business_status": businessStatus,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if fl.Field().Kind() != reflect.String {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

func moneyPositive(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && d.IsPositive()
}

func moneyNonNegative(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && !d.IsNegative()
}

func paymentType(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := ledger.ParsePaymentType(s)
	return err == nil
}

func businessStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}

	var err error
	switch fl.Param() {
	case "purchase":
		_, err = purchase.ParseStatus(s)
	case "sales_order":
		_, err = sales_order.ParseStatus(s)
	case "return":
		_, err = returns.ParseStatus(s)
	case "expense":
		_, err = expense.ParseStatus(s)
	default:
		return false
	}
	return err == nil
}
