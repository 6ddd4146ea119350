// Package core provides money parsing and handling utilities.
//
// This file contains the Money type and the parser for the dataset's
// amount column. Amounts keep every decimal place written in the source.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact non-negative decimal amount.
type Money struct {
	d decimal.Decimal
}

// Cents builds a Money worth c hundredths.
func Cents(c int64) Money {
	return Money{d: decimal.New(c, -2)}
}

// ParseAmount converts a decimal string to Money without rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Only ASCII
// digits are allowed. Zero is a valid amount; negative values, signs, exponents
// and any other characters are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.345
//	ParseAmount("0")      -> 0
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Money{}, ErrInvalidAmount
	}
	if !asciiDigits(intPart) || !asciiDigits(fracPart) {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		fracPart = "0"
	}
	d, err := decimal.NewFromString(intPart + "." + fracPart)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Float returns the amount as a decimal number for JSON responses.
// Sums are kept exact; convert only at the edge.
func (m Money) Float() float64 {
	return m.d.InexactFloat64()
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports whether both amounts have the same value, whatever their scale.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// String renders the amount without trailing zeros, as stored in SQLite.
func (m Money) String() string {
	return m.d.String()
}
