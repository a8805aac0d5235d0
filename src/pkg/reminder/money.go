package reminder

import (
	"strings"

	"github.com/shopspring/decimal"
)

/*
FormatMoney formats an amount with two decimals and comma thousand separators.

Examples:

	1234.5   -> "$1,234.50"
	-123.45  -> "- $123.45"
*/
func FormatMoney(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(2)
	raw := rounded.Abs().StringFixed(2)

	whole, fraction, _ := strings.Cut(raw, ".")
	formatted := symbol + GroupThousands(whole, ",") + "." + fraction
	if rounded.IsNegative() {
		return "- " + formatted
	}
	return formatted
}

/*
GroupThousands groups digits in a base-10 string using the provided separator.
*/
func GroupThousands(raw string, sep string) string {
	if len(raw) <= 3 {
		return raw
	}

	var builder strings.Builder
	firstGroupLen := len(raw) % 3
	if firstGroupLen == 0 {
		firstGroupLen = 3
	}

	builder.WriteString(raw[:firstGroupLen])

	for index := firstGroupLen; index < len(raw); index += 3 {
		builder.WriteString(sep)
		builder.WriteString(raw[index : index+3])
	}

	return builder.String()
}
