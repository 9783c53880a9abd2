package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ExcerptLimit is the number of characters kept in raw text excerpts.
const ExcerptLimit = 2000

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLinesRe      = regexp.MustCompile(`\n{3,}`)

	dashFolder = strings.NewReplacer(
		"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "−", "-",
		"‘", "'", "’", "'",
	)
)

// CleanText prepares OCR or PDF text for extraction. Full-width digits
// and compatibility characters are folded with NFKC, dashes are unified,
// runs of horizontal whitespace are collapsed and line structure is kept.
func CleanText(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = dashFolder.Replace(text)
	text = horizontalSpaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Excerpt returns the first ExcerptLimit characters of text, with "..."
// appended when the text was cut.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= ExcerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptLimit]) + "..."
}

// HasUsableText reports whether text has at least minChars non-space characters.
func HasUsableText(text string, minChars int) bool {
	count := 0
	for _, r := range text {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			count++
			if count >= minChars {
				return true
			}
		}
	}
	return false
}
