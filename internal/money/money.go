// Package money defines the decimal policy for balances: every amount that is
// persisted or cached is scaled to exactly two fractional digits with
// half-down rounding, while anything rendered for humans is truncated so a
// displayed balance never overstates actual holdings.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// StorageScale is the number of fractional digits a balance carries after any
// mutation.
const StorageScale = 2

// halfStep sits exactly between two storage-scale increments.
var halfStep = decimal.New(5, -(StorageScale + 1)) // 0.005

// Scale rounds d to the storage scale using half-down rounding: ties round
// toward zero so rounding can never manufacture money.
func Scale(d decimal.Decimal) decimal.Decimal {
	truncated := d.Truncate(StorageScale)
	remainder := d.Sub(truncated).Abs()
	if remainder.GreaterThan(halfStep) {
		step := decimal.New(1, -StorageScale)
		if d.Sign() < 0 {
			step = step.Neg()
		}
		truncated = truncated.Add(step)
	}
	return truncated
}

// Display truncates d to the storage scale. Display rounding never rounds up.
func Display(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(StorageScale)
}

type suffix struct {
	label    string
	exponent int32
}

// Ordered smallest to largest; exponents are powers of ten.
var suffixes = []suffix{
	{"", 0},
	{"k", 3},
	{"M", 6},
	{"B", 9},
	{"T", 12},
	{"Q", 15},
	{"QQ", 18},
	{"S", 21},
	{"SS", 24},
	{"O", 27},
	{"N", 30},
	{"D", 33},
	{"UD", 36},
}

var thousand = decimal.New(1, 3)

// FormatSuffixed renders d in compact form with a magnitude suffix, e.g.
// "1.23k" or "45.60M". Values below one thousand keep two fractional digits
// with no suffix. All scaling truncates.
func FormatSuffixed(d decimal.Decimal) string {
	if d.IsZero() {
		return "0.00"
	}

	abs := d.Abs().Truncate(StorageScale)
	sign := ""
	if d.Sign() < 0 {
		sign = "-"
	}

	if abs.LessThan(thousand) {
		return sign + abs.StringFixed(StorageScale)
	}

	idx := len(suffixes) - 1
	for idx > 0 && abs.LessThan(decimal.New(1, suffixes[idx].exponent)) {
		idx--
	}

	divisor := decimal.New(1, suffixes[idx].exponent)
	quotient, _ := abs.QuoRem(divisor, StorageScale)
	return sign + quotient.StringFixed(StorageScale) + suffixes[idx].label
}

// FormatRaw renders d with thousands separators and exactly two fractional
// digits, truncating.
func FormatRaw(d decimal.Decimal) string {
	fixed := d.Truncate(StorageScale).StringFixed(StorageScale)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	dot := strings.IndexByte(fixed, '.')
	intPart, fracPart := fixed[:dot], fixed[dot:]

	var b strings.Builder
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteString(fracPart)
	return b.String()
}

var suffixedPattern = regexp.MustCompile(`^([-+]?\d*\.?\d+)([a-zA-Z]{0,2})$`)

// ParseSuffixed parses a compact balance string such as "1.23k" or "45M" back
// into a decimal. Suffixes match case-insensitively.
func ParseSuffixed(value string) (decimal.Decimal, error) {
	match := suffixedPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return decimal.Decimal{}, fmt.Errorf("malformed balance %q", value)
	}

	number, err := decimal.NewFromString(match[1])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed balance %q: %w", value, err)
	}

	label := strings.ToUpper(match[2])
	if label == "" {
		return number, nil
	}
	for _, s := range suffixes {
		if strings.ToUpper(s.label) == label {
			return number.Mul(decimal.New(1, s.exponent)), nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("unknown magnitude suffix %q", match[2])
}
