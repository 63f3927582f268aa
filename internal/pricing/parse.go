package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/geo"
)

var numberToken = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice extracts the first number from a free-text price.
//
//	"€1.234,56" -> 1234.56   "$1,234.56" -> 1234.56   "R$ 1.500" -> 1500
//	"€25,50"    -> 25.5      "12.5"      -> 12.5      "Gratuito" -> 0
//
// When both separators appear the last one is the decimal mark. A lone
// separator is a thousands mark if it repeats or is followed by exactly three
// digits, otherwise it is the decimal mark. Unparsable input returns 0.
func ParsePrice(s string) float64 {
	tok := strings.TrimRight(numberToken.FindString(s), ".,")
	if tok == "" {
		return 0
	}

	lastDot := strings.LastIndex(tok, ".")
	lastComma := strings.LastIndex(tok, ",")

	var normalized string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			normalized = strings.ReplaceAll(tok, ",", "")
		} else {
			normalized = strings.Replace(strings.ReplaceAll(tok, ".", ""), ",", ".", 1)
		}
	case lastComma >= 0:
		normalized = singleSeparator(tok, ",")
	case lastDot >= 0:
		normalized = singleSeparator(tok, ".")
	default:
		normalized = tok
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func singleSeparator(tok, sep string) string {
	if strings.Count(tok, sep) > 1 {
		return strings.ReplaceAll(tok, sep, "")
	}
	if len(tok)-strings.Index(tok, sep)-1 == 3 {
		return strings.ReplaceAll(tok, sep, "")
	}
	return strings.Replace(tok, sep, ".", 1)
}

// dollarSymbols are the prefixed dollar signs. The leading group keeps "R$"
// from matching inside "AR$"; alternatives are tried left to right.
var dollarSymbols = regexp.MustCompile(`(?:^|[^A-Z])(AR\$|CLP\$|COL\$|MX\$|UY\$|CA\$|AU\$|US\$|U\$|C\$|A\$|R\$)`)

var dollarCodes = map[string]string{
	"AR$":  "ARS",
	"CLP$": "CLP",
	"COL$": "COP",
	"MX$":  "MXN",
	"UY$":  "UYU",
	"CA$":  "CAD",
	"C$":   "CAD",
	"AU$":  "AUD",
	"A$":   "AUD",
	"US$":  "USD",
	"U$":   "USD",
	"R$":   "BRL",
}

var currencySigns = []struct {
	token string
	code  string
}{
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

// currencyCode accepts codes glued to the amount ("USD50") but not inside
// longer words.
var currencyCode = regexp.MustCompile(`(?:^|[^A-Z])(BRL|USD|EUR|GBP|JPY|ARS|CLP|UYU|PEN|COP|MXN|CAD|AUD|CHF|AED)(?:[^A-Z]|$)`)

// DetectCurrency returns the ISO code embedded in a price string, reading a
// bare "$" as US dollars. See DetectCurrencyWith.
func DetectCurrency(s string) (code string, found bool) {
	return DetectCurrencyWith(s, "USD")
}

// DetectCurrencyWith returns the ISO code embedded in a price string:
// prefixed dollar signs first ("AR$", "US$", "R$"), then €/£/¥, then ISO
// codes, then a bare "$", which means bareDollar (USD when empty). Strings
// without any marker are assumed to be BRL and found is false.
func DetectCurrencyWith(s, bareDollar string) (code string, found bool) {
	upper := strings.ToUpper(s)
	if m := dollarSymbols.FindStringSubmatch(upper); m != nil {
		return dollarCodes[m[1]], true
	}
	for _, m := range currencySigns {
		if strings.Contains(upper, m.token) {
			return m.code, true
		}
	}
	if m := currencyCode.FindStringSubmatch(upper); m != nil {
		return m[1], true
	}
	if strings.Contains(s, "$") {
		if bareDollar == "" {
			bareDollar = "USD"
		}
		return strings.ToUpper(bareDollar), true
	}
	return "BRL", false
}

// FormatBRL renders an amount as "R$ 1.234", rounded to whole reais.
func FormatBRL(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String()
}

// CacheKey builds the normalized cache key for a query and its qualifiers
// (brand, location). Empty parts are skipped.
func CacheKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := geo.Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "|")
}
