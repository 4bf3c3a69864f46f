package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Zero Birr"},
		{"100", "One Hundred Birr"},
		{"500", "Five Hundred Birr"},
		{"1250.5", "One Thousand Two Hundred Fifty Birr and Fifty Santim"},
		{"19.05", "Nineteen Birr and Five Santim"},
		{"2000000", "Two Million Birr"},
		{"1001013", "One Million One Thousand Thirteen Birr"},
		{"1000000000000000", "One Quadrillion Birr"},
		{"2500000000000000.25", "Two Quadrillion Five Hundred Trillion Birr and Twenty Five Santim"},
		{"9999999999999999.99", "Nine Quadrillion Nine Hundred Ninety Nine Trillion Nine Hundred Ninety Nine Billion " +
			"Nine Hundred Ninety Nine Million Nine Hundred Ninety Nine Thousand Nine Hundred Ninety Nine Birr and Ninety Nine Santim"},
		{"100000000000000000000", "One Hundred Quintillion Birr"},
		{"1000000000000000000000", "1000000000000000000000.00 Birr"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, InWords(decimal.RequireFromString(tt.in)))
		})
	}
}
