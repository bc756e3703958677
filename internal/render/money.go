package render

import (
	"fmt"
	"math"
	"strings"
)

// FormatINR formats an amount in Indian Rupee notation: the rightmost
// three digits form the first group, then every two digits form the
// next (₹12,34,567). Whole amounts render without decimals; fractional
// amounts with two places.
func FormatINR(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	var intPart, decPart string
	if amount == math.Trunc(amount) {
		intPart = fmt.Sprintf("%.0f", amount)
	} else {
		raw := fmt.Sprintf("%.2f", amount)
		parts := strings.SplitN(raw, ".", 2)
		intPart, decPart = parts[0], parts[1]
	}

	result := "₹" + applyIndianGrouping(intPart)
	if decPart != "" {
		result += "." + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}
	return result
}
