// Package validate holds input validation helpers shared by the services.
package validate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the accepted date-of-birth format.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("wrong date format, use (YYYY-MM-DD)")
	}
	return t, nil
}

// YearsSinceAt returns full calendar years between then and now: the year
// difference, minus one if now has not yet reached the month/day anniversary.
func YearsSinceAt(then, now time.Time) int {
	years := now.Year() - then.Year()
	if now.Month() < then.Month() {
		years--
	} else if now.Month() == then.Month() && now.Day() < then.Day() {
		years--
	}
	return years
}

// YearsSince returns full calendar years between then and the current time.
func YearsSince(then time.Time) int {
	return YearsSinceAt(then, time.Now())
}

// ParseMoney parses a positive monetary amount, rounded to cents.
func ParseMoney(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a valid amount: %q", s)
	}
	amount = amount.Round(2)
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero")
	}
	return amount, nil
}
