// Package currency formats amounts for display in proposals.
package currency

import (
	"fmt"
	"math"
	"strings"
)

// format describes how one ISO currency is displayed.
type format struct {
	prefix   string
	decimals int
	thousand string
	decimal  string
}

var formats = map[string]format{
	"USD": {prefix: "$", decimals: 2, thousand: ",", decimal: "."},
	"CAD": {prefix: "CA$", decimals: 2, thousand: ",", decimal: "."},
	"AUD": {prefix: "A$", decimals: 2, thousand: ",", decimal: "."},
	"GBP": {prefix: "£", decimals: 2, thousand: ",", decimal: "."},
	"EUR": {prefix: "€", decimals: 2, thousand: ".", decimal: ","},
	"JPY": {prefix: "¥", decimals: 0, thousand: ",", decimal: "."},
	"IDR": {prefix: "IDR ", decimals: 0, thousand: ".", decimal: ","},
}

// Format renders amount in the given ISO currency, e.g. "$1,234.50" or
// "€1.234,50". Unknown codes render as "XYZ 1,234.50".
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	f, ok := formats[code]
	if !ok {
		f = format{prefix: code + " ", decimals: 2, thousand: ",", decimal: "."}
		if code == "" {
			f.prefix = ""
		}
	}

	scale := math.Pow10(f.decimals)
	rounded := math.Round(amount*scale) / scale

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	s := fmt.Sprintf("%.*f", f.decimals, rounded)
	intPart, fracPart, _ := strings.Cut(s, ".")

	result := f.prefix + addThousandsSeparator(intPart, f.thousand)
	if f.decimals > 0 {
		result += f.decimal + fracPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// FormatIDR renders a rupiah amount without decimals, e.g. "IDR 1.500.000".
func FormatIDR(amount float64) string {
	return Format(amount, "IDR")
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	b.Grow(n + (n-1)/3*len(sep))
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
