package parser

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var errEmptyAmount = errors.New("empty amount")

// amountPattern matches integers or decimals, with optional thousands
// separators and an optional leading minus sign.
var amountPattern = regexp.MustCompile(`-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)

// Keyword patterns for free-text classification. "cr" and "dr" only count as
// standalone tokens so words like "transfer" or "address" don't match.
var (
	depositPattern    = regexp.MustCompile(`(?i)deposit|credit|(?:^|[^a-z])cr(?:[^a-z]|$)`)
	withdrawalPattern = regexp.MustCompile(`(?i)withdraw|debit|(?:^|[^a-z])dr(?:[^a-z]|$)`)
	balancePattern    = regexp.MustCompile(`(?i)balance`)
)

// parseAmount converts a string like "1,234.56" or "-£1,234.56" to a float64.
// Blank cells and bare signs are reported as errEmptyAmount.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	// Remove currency symbols and whitespace (including Unicode variants)
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "") // non-breaking space
	s = strings.Trim(s, "\"'")

	if s == "" || s == "-" || s == "+" {
		return 0, errEmptyAmount
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// findAmounts returns every numeric token on a line, in order. Tokens that
// fail to parse are dropped.
func findAmounts(line string) []float64 {
	var out []float64
	for _, raw := range amountPattern.FindAllString(line, -1) {
		v, err := parseAmount(raw)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// headerIndex returns the first column whose lowered header contains needle.
func headerIndex(headers []string, needle string) int {
	for i, h := range headers {
		if strings.Contains(strings.ToLower(strings.TrimSpace(h)), needle) {
			return i
		}
	}
	return -1
}
