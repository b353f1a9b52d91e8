package extractor

import (
	"strings"
	"unicode"
)

const (
	minReadableChars = 50
	minReadableRatio = 0.6
)

// statementWords appear in virtually every bank or revenue statement. Text
// containing none of them is most likely decoded garbage.
var statementWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "deposit", "withdraw",
	"transaction", "revenue", "invoice", "paid", "opening", "closing",
	"transfer", "period",
}

// isReadableText reports whether pages hold more than 50 characters of text
// that is over 60% plain ASCII and mentions at least one statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= minReadableChars {
		return false
	}
	if textQuality(pages) <= minReadableRatio {
		return false
	}
	return containsStatementWords(pages)
}

// textQuality returns the share of characters that are ASCII letters,
// digits, whitespace or common statement punctuation. unicode.IsLetter is
// deliberately not used: identity-encoded fonts decode to accented noise.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if isReadableRune(r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func isReadableRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(".,-/:;()'\"£$€%&@#!?+=*", r)
}

func containsStatementWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
