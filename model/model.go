package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// RoundMoney rounds an amount to whole currency units, half away from zero.
// All derived amounts (daily amortization, delinquent principal, delinquent
// interest) are kept in whole units.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// DateOnly truncates a timestamp to its calendar date in UTC. Day counting
// and the "already processed today" check operate on dates, never on clock
// time.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
