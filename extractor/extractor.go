// Package extractor resolves field values from document text using the
// ordered patterns of the pattern library.
package extractor

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

// Extractor is stateless and safe for concurrent use; per-document state
// lives in Document.
type Extractor struct {
	scanner *Scanner
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWindow sets the context window size.
func WithWindow(n int) Option {
	return func(e *Extractor) { e.scanner = NewScanner(n, denylistOf(e.scanner)) }
}

// WithDenylist drops bare integer tokens with these values.
func WithDenylist(values []float64) Option {
	return func(e *Extractor) { e.scanner = NewScanner(e.scanner.window, values) }
}

func denylistOf(s *Scanner) []float64 {
	out := make([]float64, 0, len(s.denylist))
	for v := range s.denylist {
		out = append(out, v)
	}
	return out
}

// New builds an Extractor.
func New(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{scanner: NewScanner(DefaultWindow, nil), logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document is the per-document extraction state: the scanned candidates
// and the occurrences already claimed by accepted fields.
type Document struct {
	text       string
	window     int
	candidates []Candidate
	claimed    map[int]string    // offset -> field
	windows    map[string]string // full context window -> field
}

// NewDocument scans text once for candidates.
func (e *Extractor) NewDocument(text string) *Document {
	return &Document{
		text:       text,
		window:     e.scanner.window,
		candidates: e.scanner.Scan(text),
		claimed:    make(map[int]string),
		windows:    make(map[string]string),
	}
}

// Candidates returns the scanned candidates in document order.
func (d *Document) Candidates() []Candidate { return d.candidates }

func (d *Document) claim(field string, c Candidate) {
	d.claimed[c.Offset] = field
	if d.fullWindow(c) {
		d.windows[c.Context] = field
	}
}

// claimedByOther reports whether another field already took this
// occurrence, or an occurrence with an identical context window. Windows
// clipped at the text edges are not compared since short texts make
// distinct tokens share them.
func (d *Document) claimedByOther(field string, c Candidate) bool {
	if owner, ok := d.claimed[c.Offset]; ok && owner != field {
		return true
	}
	if !d.fullWindow(c) {
		return false
	}
	owner, ok := d.windows[c.Context]
	return ok && owner != field
}

func (d *Document) fullWindow(c Candidate) bool {
	return c.Offset-d.window >= 0 && c.End+d.window <= len(d.text)
}

// ExtractAll resolves every field of the form. Required fields are
// resolved first so their occurrences cannot be claimed by optional
// fields; the result keeps pattern library order.
func (e *Extractor) ExtractAll(text string, form forms.Form) *dto.ExtractionResult {
	doc := e.NewDocument(text)
	specs := form.FieldSpecs()
	fields := make([]dto.ExtractedField, len(specs))

	order := make([]int, 0, len(specs))
	for i := range specs {
		if specs[i].Required {
			order = append(order, i)
		}
	}
	for i := range specs {
		if !specs[i].Required {
			order = append(order, i)
		}
	}
	for _, i := range order {
		fields[i] = e.Extract(doc, &specs[i])
	}

	return &dto.ExtractionResult{
		DocumentType:   form.Type(),
		Fields:         fields,
		RawTextExcerpt: utils.Excerpt(text),
	}
}

// ExtractField resolves a single field against fresh document state.
func (e *Extractor) ExtractField(text string, spec *forms.FieldSpec) dto.ExtractedField {
	return e.Extract(e.NewDocument(text), spec)
}

// Extract resolves one field. Patterns are tried in declared order; a
// label or keyword match accepts the first candidate in document order.
// Range-only patterns are fallbacks: the earliest such pattern with any
// candidate wins, preferring the largest value and then the earliest
// offset. Unresolved default-zero fields become zero.
func (e *Extractor) Extract(doc *Document, spec *forms.FieldSpec) dto.ExtractedField {
	field := dto.ExtractedField{Name: spec.Name}

	var fallback *Candidate
	fallbackIdx := -1

	for i := range spec.Patterns {
		p := &spec.Patterns[i]
		if err := p.Err(); err != nil {
			e.logger.Warn("skipping malformed pattern", "field", spec.Name, "pattern", i, "err", err)
			continue
		}

		cands := e.patternCandidates(doc, spec, p)
		cands = filter(cands, func(c Candidate) bool {
			if spec.Type.IsNumeric() && !p.Range.Contains(c.Value) {
				return false
			}
			return !doc.claimedByOther(spec.Name, c)
		})

		if p.IsFallback() {
			if fallback == nil && len(cands) > 0 {
				best := largest(cands)
				fallback, fallbackIdx = &best, i
			}
			continue
		}

		if len(p.Keywords) > 0 {
			cands = filter(cands, func(c Candidate) bool { return hasKeyword(c.Context, p.Keywords) })
		}
		if len(cands) == 0 {
			continue
		}

		c := cands[0]
		if v := e.typed(spec, c); v != nil {
			doc.claim(spec.Name, c)
			idx := i
			field.Value, field.FoundBy, field.Method = v, &idx, dto.MethodPattern
			e.logger.Debug("field resolved", "field", spec.Name, "pattern", i, "raw", c.Raw)
			return field
		}
	}

	if fallback != nil {
		if v := e.typed(spec, *fallback); v != nil {
			doc.claim(spec.Name, *fallback)
			field.Value, field.FoundBy, field.Method = v, &fallbackIdx, dto.MethodFallback
			e.logger.Debug("field resolved by fallback", "field", spec.Name, "pattern", fallbackIdx, "raw", fallback.Raw)
			return field
		}
	}

	if spec.DefaultZero {
		field.Value, field.Method = dto.ZeroValue(spec.Type), dto.MethodDefault
	}
	return field
}

// patternCandidates returns the candidates a pattern looks at, in
// document order.
func (e *Extractor) patternCandidates(doc *Document, spec *forms.FieldSpec, p *forms.Pattern) []Candidate {
	re := p.Regexp()
	if re == nil {
		return doc.candidates
	}

	var out []Candidate
	seen := make(map[int]bool)
	for _, m := range re.FindAllStringSubmatchIndex(doc.text, -1) {
		if len(m) >= 4 && m[2] >= 0 {
			raw := doc.text[m[2]:m[3]]
			c := Candidate{
				Raw:     raw,
				Context: contextWindow(doc.text, m[2], m[3], e.scanner.window),
				Offset:  m[2],
				End:     m[3],
			}
			if spec.Type.IsNumeric() {
				n, ok := utils.ParseAmount(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
				if !ok {
					e.logger.Debug("captured value not numeric", "field", spec.Name, "raw", raw)
					continue
				}
				c.Value = n
			}
			if !seen[c.Offset] {
				seen[c.Offset] = true
				out = append(out, c)
			}
			continue
		}

		from, to := m[1], endOfNextLine(doc.text, m[1])
		for _, c := range doc.candidates {
			if c.Offset >= from && c.Offset < to && !seen[c.Offset] {
				seen[c.Offset] = true
				out = append(out, c)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// typed converts a candidate into the field's value type. A nil result is
// a field parse failure and the candidate is ignored.
func (e *Extractor) typed(spec *forms.FieldSpec, c Candidate) *dto.Value {
	if spec.Type.IsNumeric() {
		return dto.NumberValue(spec.Type, c.Value)
	}
	v := utils.Normalize(c.Raw, spec.Type)
	if v == nil {
		e.logger.Debug("value did not normalize", "field", spec.Name, "type", spec.Type, "raw", c.Raw)
	}
	return v
}

func endOfNextLine(text string, from int) int {
	i := strings.IndexByte(text[from:], '\n')
	if i < 0 {
		return len(text)
	}
	next := from + i + 1
	j := strings.IndexByte(text[next:], '\n')
	if j < 0 {
		return len(text)
	}
	return next + j
}

func hasKeyword(context string, keywords []string) bool {
	lower := strings.ToLower(context)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func filter(cands []Candidate, keep func(Candidate) bool) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func largest(cands []Candidate) Candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Value > best.Value {
			best = c
		}
	}
	return best
}
