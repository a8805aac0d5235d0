/*
Turn free-form spreadsheet money cells into signed decimal amounts.
*/
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// creditTokenRegexp matches the "CR" credit-note marker as a standalone word ("50 CR", "CR 50").
var creditTokenRegexp = regexp.MustCompile(`\bCR\b`)

// notAmountCharRegexp matches everything that can't be part of a number once the sign is known.
var notAmountCharRegexp = regexp.MustCompile(`[^0-9.,]`)

/*
Amount parses a raw cell value into a signed decimal.

Accepted inputs:
  - nil, "" and whitespace -> 0
  - numbers (ints, floats, decimal.Decimal, json.Number) -> same value
  - strings like "(123.45)", "-1,234.56", "50 CR", "$ 1.234,56"

Amount never fails. Anything it can't make sense of becomes 0.
*/
func Amount(raw any) decimal.Decimal {
	switch value := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return value
	case *decimal.Decimal:
		if value == nil {
			return decimal.Zero
		}
		return *value
	case float64:
		return fromFloat(value)
	case float32:
		return fromFloat(float64(value))
	case int:
		return decimal.NewFromInt(int64(value))
	case int8:
		return decimal.NewFromInt(int64(value))
	case int16:
		return decimal.NewFromInt(int64(value))
	case int32:
		return decimal.NewFromInt(int64(value))
	case int64:
		return decimal.NewFromInt(value)
	case uint:
		return decimal.NewFromUint64(uint64(value))
	case uint8:
		return decimal.NewFromUint64(uint64(value))
	case uint16:
		return decimal.NewFromUint64(uint64(value))
	case uint32:
		return decimal.NewFromUint64(uint64(value))
	case uint64:
		return decimal.NewFromUint64(value)
	case json.Number:
		parsed, err := decimal.NewFromString(value.String())
		if err != nil {
			return decimal.Zero
		}
		return parsed
	case string:
		return fromText(value)
	case []byte:
		return fromText(string(value))
	default:
		return decimal.Zero
	}
}

func fromFloat(value float64) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

func fromText(raw string) decimal.Decimal {
	text := strings.ToUpper(strings.TrimSpace(raw))
	if text == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if strings.HasPrefix(text, "-") {
		negative = true
		text = strings.TrimSpace(text[1:])
	}
	// "123-"
	if strings.HasSuffix(text, "-") {
		negative = true
		text = strings.TrimSpace(text[:len(text)-1])
	}
	if creditTokenRegexp.MatchString(text) {
		negative = true
	}

	cleaned := canonicalSeparators(notAmountCharRegexp.ReplaceAllString(text, ""))
	if cleaned == "" {
		return decimal.Zero
	}

	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return parsed.Neg()
	}
	return parsed
}

/*
canonicalSeparators rewrites a digits/commas/periods string so that it has at
most one "." acting as the decimal point.

  - both "," and "." present: whichever comes last is the decimal separator
  - only "," present once: "," is the decimal separator
  - a separator repeated with no other kind present: it is digit grouping
*/
func canonicalSeparators(cleaned string) string {
	commaCount := strings.Count(cleaned, ",")
	dotCount := strings.Count(cleaned, ".")

	switch {
	case commaCount > 0 && dotCount > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			return strings.Replace(cleaned, ",", ".", 1)
		}
		return strings.ReplaceAll(cleaned, ",", "")
	case commaCount == 1:
		return strings.Replace(cleaned, ",", ".", 1)
	case commaCount > 1:
		return strings.ReplaceAll(cleaned, ",", "")
	case dotCount > 1:
		return strings.ReplaceAll(cleaned, ".", "")
	default:
		return cleaned
	}
}
