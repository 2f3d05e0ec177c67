// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for amounts (NUMERIC(18,2)).
const MoneyScale = 2

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// RoundMoney rounds half away from zero to the stored scale.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// Multiply returns price × quantity rounded to the stored scale.
func Multiply(price Money, quantity int64) Money {
	return RoundMoney(price.Mul(decimal.NewFromInt(quantity)))
}
