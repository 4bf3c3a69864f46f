// Package money formats amounts for receipts.
package money

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tens   = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	scales = []string{"", "Thousand", "Million", "Billion", "Trillion", "Quadrillion", "Quintillion"}
)

// InWords spells out a non-negative birr amount, e.g. 1250.5 becomes
// "One Thousand Two Hundred Fifty Birr and Fifty Santim". Amounts past the
// largest named scale are written in digits.
func InWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()

	words, ok := spell(whole.BigInt())
	if !ok {
		return amount.StringFixed(2) + " Birr"
	}
	if words == "" {
		words = "Zero"
	}
	out := words + " Birr"
	if cents > 0 {
		c, _ := spell(big.NewInt(cents))
		out += " and " + c + " Santim"
	}
	return out
}

var thousand = big.NewInt(1000)

// spell reports false when n needs a scale beyond the table.
func spell(n *big.Int) (string, bool) {
	n = new(big.Int).Set(n)
	chunk := new(big.Int)
	var parts []string
	for i := 0; n.Sign() > 0; i++ {
		if i == len(scales) {
			return "", false
		}
		n.QuoRem(n, thousand, chunk)
		if chunk.Sign() == 0 {
			continue
		}
		w := spellHundreds(int(chunk.Int64()))
		if scales[i] != "" {
			w += " " + scales[i]
		}
		parts = append([]string{w}, parts...)
	}
	return strings.Join(parts, " "), true
}

func spellHundreds(n int) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n >= 20 {
		parts = append(parts, tens[n/10])
		n %= 10
	}
	if n > 0 {
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
