package utils

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParsePrice reads a currency-formatted price such as "$1,250,000.50".
// Everything except digits and '.' is ignored. The second return value is
// false when nothing numeric remains.
func ParsePrice(price string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range price {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// PricePerShare divides a currency-formatted total price by the share count.
// Returns false when the price is missing or unparseable or shares is not positive.
func PricePerShare(price string, totalShares int) (decimal.Decimal, bool) {
	if price == "" || totalShares <= 0 {
		return decimal.Zero, false
	}
	total, ok := ParsePrice(price)
	if !ok {
		return decimal.Zero, false
	}
	return total.Div(decimal.NewFromInt(int64(totalShares))), true
}

// FormatAmount renders d with thousands separators and at most three
// fraction digits: 10000 -> "10,000", 1234.5 -> "1,234.5".
func FormatAmount(d decimal.Decimal) string {
	r := d.Round(3)
	if r.IsInteger() {
		return humanize.Comma(r.IntPart())
	}
	return humanize.Commaf(r.InexactFloat64())
}

// FormatUSD renders d as a dollar amount, e.g. "$10,000"
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + FormatAmount(d.Neg())
	}
	return "$" + FormatAmount(d)
}
