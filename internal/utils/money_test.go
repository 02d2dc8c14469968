package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "dollar with commas", input: "$10,000", want: "10000", wantOK: true},
		{name: "decimals", input: "$1,250,000.50", want: "1250000.5", wantOK: true},
		{name: "plain number", input: "750000", want: "750000", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "no digits", input: "TBD", wantOK: false},
		{name: "two dots", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestPricePerShare(t *testing.T) {
	pps, ok := PricePerShare("$10,000", 1000)
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(10).Equal(pps))

	_, ok = PricePerShare("", 1000)
	assert.False(t, ok)

	_, ok = PricePerShare("$10,000", 0)
	assert.False(t, ok)
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "10000", want: "$10,000"},
		{in: "1234.5", want: "$1,234.5"},
		{in: "999", want: "$999"},
		{in: "1000000.1234", want: "$1,000,000.123"},
		{in: "0", want: "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUSD(decimal.RequireFromString(tt.in)))
		})
	}
}
