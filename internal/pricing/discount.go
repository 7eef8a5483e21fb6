// Package pricing computes cart totals and discount codes.
package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownDiscountCode is returned when a code is not in the table.
var ErrUnknownDiscountCode = errors.New("unknown discount code")

// DiscountTable maps upper-case codes to a whole percentage.
type DiscountTable map[string]int

// DefaultDiscounts returns the built-in promotional codes.
func DefaultDiscounts() DiscountTable {
	return DiscountTable{
		"WELCOME10": 10,
		"STUDENT20": 20,
		"FLASH50":   50,
	}
}

// ParseDiscounts reads a "CODE:PERCENT,CODE:PERCENT" list.
func ParseDiscounts(raw string) (DiscountTable, error) {
	table := DiscountTable{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		code, value, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("discount entry %q: expected CODE:PERCENT", entry)
		}
		percent, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("discount entry %q: %w", entry, err)
		}
		if percent <= 0 || percent > 100 {
			return nil, fmt.Errorf("discount entry %q: percent must be within 1..100", entry)
		}
		table[normalizeCode(code)] = percent
	}
	return table, nil
}

// Lookup resolves a code case-insensitively.
func (t DiscountTable) Lookup(code string) (int, bool) {
	percent, ok := t[normalizeCode(code)]
	return percent, ok
}

// Line is one priced item.
type Line struct {
	CourseID uint
	Title    string
	Price    int64
}

// Quote is a priced cart.
type Quote struct {
	Lines    []Line
	Subtotal int64
	Code     string
	Percent  int
	Discount int64
	Total    int64
}

// Quote prices lines and applies code when it is not empty. The discount is
// rounded down to the smallest currency unit.
func (t DiscountTable) Quote(lines []Line, code string) (Quote, error) {
	quote := Quote{Lines: lines}
	for _, line := range lines {
		quote.Subtotal += line.Price
	}

	code = normalizeCode(code)
	if code != "" {
		percent, ok := t.Lookup(code)
		if !ok {
			return Quote{}, ErrUnknownDiscountCode
		}
		quote.Code = code
		quote.Percent = percent
		quote.Discount = quote.Subtotal * int64(percent) / 100
	}
	quote.Total = quote.Subtotal - quote.Discount
	return quote, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
