package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonIntegerRe   = regexp.MustCompile(`[^\d-]`)
	plainDecimalRe = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)$`)

	currencyStripper = strings.NewReplacer(
		"$", "", "€", "", "£", "", "¥", "", "₹", "",
		",", "",
		"−", "-", // unicode minus sign
	)
)

var truthy = map[string]bool{"true": true, "yes": true, "1": true, "checked": true, "x": true}
var falsy = map[string]bool{"false": true, "no": true, "0": true, "unchecked": true, "": true}

// Normalize parses a raw token into a typed value. It never fails loudly:
// anything that cannot be parsed yields nil.
func Normalize(raw string, valueType dto.ValueType) *dto.Value {
	switch valueType {
	case dto.TypeCurrency, dto.TypeFloat:
		if n, ok := ParseAmount(raw); ok {
			return dto.NumberValue(valueType, n)
		}
	case dto.TypePercent:
		if n, ok := ParsePercent(raw); ok {
			return dto.NumberValue(valueType, n)
		}
	case dto.TypeInteger:
		if n, ok := ParseInteger(raw); ok {
			return dto.NumberValue(valueType, float64(n))
		}
	case dto.TypeBoolean:
		if b, ok := ParseBool(raw); ok {
			return dto.BoolValue(b)
		}
	case dto.TypeDate, dto.TypeString:
		if s := strings.TrimSpace(raw); s != "" {
			return dto.TextValue(valueType, s)
		}
	}
	return nil
}

// ParseAmount parses currency and float tokens such as "$68,863.00",
// "€1,234.56" or "(2,500.00)". Parenthesised and trailing-minus amounts
// are negative.
func ParseAmount(raw string) (float64, bool) {
	d, ok := parseDecimal(raw)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	s := whitespaceRe.ReplaceAllString(raw, "")
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyStripper.Replace(s)
	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if !plainDecimalRe.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParsePercent parses "12.5%" or "12.5" as 12.5. No /100 scaling is applied.
func ParsePercent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return ParseAmount(s)
}

// ParseInteger strips everything except digits and minus signs.
func ParseInteger(raw string) (int64, bool) {
	s := nonIntegerRe.ReplaceAllString(raw, "")
	if s == "" || s == "-" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseBool matches checkbox-style answers.
func ParseBool(raw string) (bool, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if truthy[s] {
		return true, true
	}
	if falsy[s] {
		return false, true
	}
	return false, false
}

// RoundCents rounds an amount to two decimal places using decimal
// arithmetic, avoiding float artifacts in sums like 500-200-100.
func RoundCents(n float64) float64 {
	return decimal.NewFromFloat(n).Round(2).InexactFloat64()
}

// SumAmounts adds amounts exactly and returns the rounded result.
func SumAmounts(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
