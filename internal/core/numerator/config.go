// Package numerator provides domain contracts for business-ID numbering.
package numerator

import (
	"fmt"
	"strings"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict runs one atomic UPSERT ... RETURNING per number.
	// Inside a transaction the number is rolled back with it, so there are no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster for bulk imports, but may produce gaps if the process restarts.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Reset periods.
const (
	ResetDaily   = "day"
	ResetMonthly = "month"
	ResetYearly  = "year"
	ResetNever   = "never"
)

// Config holds numbering configuration for one business sequence.
type Config struct {
	// Prefix added to all numbers (e.g., "CUS", "PO")
	Prefix string

	// DateLayout is a time layout rendered between prefix and counter ("20060102", "060102").
	// Empty means no date part.
	DateLayout string

	// Separator joins prefix, date and counter ("-" gives PO-20240101-0001, "" gives CUS0001)
	Separator string

	// PadWidth is the minimum counter width. Wider counters are never truncated.
	PadWidth int

	// ResetPeriod: "day", "month", "year", "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly sequence like INV-2024-00001.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		DateLayout:  "2006",
		Separator:   "-",
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Business sequences.
var (
	CustomerConfig       = Config{Prefix: "CUS", PadWidth: 4, ResetPeriod: ResetNever}
	SupplierConfig       = Config{Prefix: "SUP", PadWidth: 4, ResetPeriod: ResetNever}
	WarehouseConfig      = Config{Prefix: "WH", PadWidth: 4, ResetPeriod: ResetNever}
	PurchaseConfig       = Config{Prefix: "PO", DateLayout: "20060102", Separator: "-", PadWidth: 4, ResetPeriod: ResetDaily}
	SalesOrderConfig     = Config{Prefix: "SO", DateLayout: "060102", Separator: "-", PadWidth: 3, ResetPeriod: ResetDaily}
	PurchaseReturnConfig = Config{Prefix: "RET", DateLayout: "060102", Separator: "-", PadWidth: 3, ResetPeriod: ResetDaily}
	SalesReturnConfig    = Config{Prefix: "SRET", DateLayout: "060102", Separator: "-", PadWidth: 3, ResetPeriod: ResetDaily}
	ExpenseConfig        = Config{Prefix: "EXP", Separator: "-", PadWidth: 6, ResetPeriod: ResetNever}
)

// Key returns the sequence key for the period (e.g., "SO_20240101", "CUS").
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetDaily:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("20060102"))
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("200601"))
	case ResetYearly:
		return fmt.Sprintf("%s_%d", c.Prefix, period.Year())
	default:
		return c.Prefix
	}
}

// Format renders the business number for counter value n.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	parts := make([]string, 0, 3)
	if c.Prefix != "" {
		parts = append(parts, c.Prefix)
	}
	if c.DateLayout != "" {
		parts = append(parts, period.Format(c.DateLayout))
	}
	parts = append(parts, fmt.Sprintf("%0*d", width, n))
	return strings.Join(parts, c.Separator)
}
