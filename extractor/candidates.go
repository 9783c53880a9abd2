package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aashish23092/tax-form-extraction/utils"
)

// DefaultWindow is the number of characters kept on each side of a token
// as its context.
const DefaultWindow = 50

// Candidate is a numeric token that may be the value of a field.
type Candidate struct {
	Raw     string
	Value   float64
	Context string
	Offset  int
	End     int
}

var (
	tokenRe = regexp.MustCompile(
		`\(?-?(?:[$€£¥]\s?)?\d{1,3}(?:,\d{3})+(?:\.\d+)?\)?` +
			`|\(?-?(?:[$€£¥]\s?)?\d+(?:\.\d+)?\)?`)

	stateCodeRe = regexp.MustCompile(`\b[A-Z]{2},?\s+$`)
	yearLineRe  = regexp.MustCompile(`(?i)\b(?:form|schedule|tax\s+year|calendar\s+year)\b`)
)

// words that make the following bare integer a reference, not an amount
var referenceWords = map[string]bool{
	"line": true, "lines": true, "box": true, "boxes": true,
	"form": true, "forms": true, "schedule": true, "schedules": true,
	"section": true, "sections": true, "part": true, "page": true, "pages": true,
	"pub": true, "publication": true, "no": true, "number": true, "cat": true,
	"omb": true, "rev": true, "step": true, "column": true, "item": true,
	"code": true, "through": true,
}

var yearWords = map[string]bool{
	"year": true, "for": true, "in": true, "dated": true,
	"ending": true, "beginning": true, "tax": true,
}

// Scanner finds candidate amounts in text.
type Scanner struct {
	window   int
	denylist map[float64]bool
}

// NewScanner builds a scanner. Denylisted values are dropped only when
// they appear as bare integers.
func NewScanner(window int, denylist []float64) *Scanner {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Scanner{window: window, denylist: make(map[float64]bool, len(denylist))}
	for _, v := range denylist {
		s.denylist[v] = true
	}
	return s
}

// Scan returns every candidate in document order. Tokens that are
// structurally not amounts (line numbers, references, ZIP codes, tax
// years, SSN/EIN/date fragments) are left out.
func (s *Scanner) Scan(text string) []Candidate {
	var out []Candidate
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		if c, ok := s.candidateAt(text, loc[0], loc[1]); ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *Scanner) candidateAt(text string, start, end int) (Candidate, bool) {
	raw := text[start:end]
	open, closed := strings.HasPrefix(raw, "("), strings.HasSuffix(raw, ")")
	if open && !closed {
		start++
	}
	if closed && !open {
		end--
	}
	raw = text[start:end]

	paren := open && closed
	integer := isDigits(raw)
	if paren {
		inner := raw[1 : len(raw)-1]
		if isDigits(inner) {
			// parenthesised bare integers are references or years, never negatives
			start, end, raw, integer = start+1, end-1, inner, true
		}
	}

	if !boundaryOK(text, start, end) {
		return Candidate{}, false
	}
	if integer && s.structurallyExcluded(text, start, end, raw, paren) {
		return Candidate{}, false
	}

	value, ok := utils.ParseAmount(raw)
	if !ok {
		return Candidate{}, false
	}
	if integer && s.denylist[value] {
		return Candidate{}, false
	}
	return Candidate{
		Raw:     raw,
		Value:   value,
		Context: contextWindow(text, start, end, s.window),
		Offset:  start,
		End:     end,
	}, true
}

// boundaryOK rejects tokens glued to letters or digits and pieces of
// dash/slash separated numbers such as SSNs, EINs and dates.
func boundaryOK(text string, start, end int) bool {
	prev, prevPrev := runesBefore(text, start)
	if isAlnum(prev) {
		return false
	}
	if (prev == '.' || prev == ',') && unicode.IsDigit(prevPrev) {
		return false
	}
	if (prev == '-' || prev == '/') && isAlnum(prevPrev) {
		return false
	}

	next, nextNext := runesAfter(text, end)
	if isAlnum(next) {
		return false
	}
	if (next == '-' || next == '/' || next == ',' || next == '.') && unicode.IsDigit(nextNext) {
		return false
	}
	return true
}

func (s *Scanner) structurallyExcluded(text string, start, end int, raw string, paren bool) bool {
	prevWord := previousWord(text, start)
	if referenceWords[prevWord] {
		return true
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}
	before := strings.TrimSpace(text[lineStart:start])
	rest := strings.TrimLeft(text[end:lineEnd], " \t")

	if len(raw) <= 2 && rest != "" && !strings.HasPrefix(strings.ToLower(rest), "percent") {
		// "31 Net profit", "2 Federal income tax withheld", "8 5,000"
		if before == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '$' || r == '(' {
			return true
		}
	}

	if len(raw) == 5 && stateCodeRe.MatchString(text[lineStart:start]) {
		return true
	}

	if len(raw) == 4 {
		year, _ := strconv.Atoi(raw)
		if year >= 1900 && year <= 2099 {
			if paren || yearWords[prevWord] || yearLineRe.MatchString(text[lineStart:lineEnd]) {
				return true
			}
		}
	}
	return false
}

// previousWord returns the lowercased word right before offset, skipping
// spaces and the punctuation that usually separates a label from its number.
func previousWord(text string, offset int) string {
	i := offset
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if r == ' ' || r == '\t' || r == '#' || r == ':' || r == '.' {
			i -= size
			continue
		}
		break
	}
	j := i
	for j > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:j])
		if !unicode.IsLetter(r) {
			break
		}
		j -= size
	}
	return strings.ToLower(text[j:i])
}

func contextWindow(text string, start, end, n int) string {
	lo := start - n
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := end + n
	if hi > len(text) {
		hi = len(text)
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

func runesBefore(text string, offset int) (rune, rune) {
	if offset <= 0 {
		return 0, 0
	}
	r1, size := utf8.DecodeLastRuneInString(text[:offset])
	if offset-size <= 0 {
		return r1, 0
	}
	r2, _ := utf8.DecodeLastRuneInString(text[:offset-size])
	return r1, r2
}

func runesAfter(text string, offset int) (rune, rune) {
	if offset >= len(text) {
		return 0, 0
	}
	r1, size := utf8.DecodeRuneInString(text[offset:])
	if offset+size >= len(text) {
		return r1, 0
	}
	r2, _ := utf8.DecodeRuneInString(text[offset+size:])
	return r1, r2
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
