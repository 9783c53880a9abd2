// Package forms holds the pattern library: for every supported tax form
// the ordered field specs, classifier indicators and validation rules.
package forms

import (
	"fmt"
	"regexp"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies inside the range. A nil range contains everything.
func (r *Range) Contains(v float64) bool {
	if r == nil {
		return true
	}
	return v >= r.Min && v <= r.Max
}

// Pattern is one ordered extraction rule for a field.
//
// Label, when set, is a regular expression locating the printed label of
// the line; only numeric tokens on the rest of that line and on the next
// line are considered. If Label has a capture group, group 1 is taken as
// the raw value instead. Keywords, when set, must appear in the context
// window of a candidate. A pattern with neither is a range fallback.
type Pattern struct {
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Range    *Range   `yaml:"range,omitempty" json:"range,omitempty"`

	re  *regexp.Regexp
	err error
}

// Compile prepares the label expression. Errors are kept on the pattern so
// the extractor can log and skip it.
func (p *Pattern) Compile() error {
	p.re, p.err = nil, nil
	if p.Label == "" {
		return nil
	}
	re, err := regexp.Compile(`(?im)` + p.Label)
	if err != nil {
		p.err = fmt.Errorf("compile label %q: %w", p.Label, err)
		return p.err
	}
	p.re = re
	return nil
}

// Regexp returns the compiled label, or nil.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// Err returns the compile error, if any.
func (p *Pattern) Err() error { return p.err }

// IsFallback reports whether the pattern has no label or keywords and
// therefore only narrows candidates by range.
func (p *Pattern) IsFallback() bool {
	return p.Label == "" && len(p.Keywords) == 0
}

// FieldSpec describes one field of a form.
type FieldSpec struct {
	Name        string        `yaml:"name" json:"name"`
	Type        dto.ValueType `yaml:"type" json:"type"`
	Patterns    []Pattern     `yaml:"patterns" json:"patterns"`
	Required    bool          `yaml:"required" json:"required"`
	Plausible   *Range        `yaml:"plausible_range,omitempty" json:"plausible_range,omitempty"`
	Description string        `yaml:"description" json:"description"`
	Format      string        `yaml:"format,omitempty" json:"format,omitempty"`
	DefaultZero bool          `yaml:"default_zero" json:"default_zero"`
	NonNegative bool          `yaml:"non_negative" json:"non_negative"`

	formatRe *regexp.Regexp
}

// FormatRegexp returns the compiled format constraint, or nil.
func (f *FieldSpec) FormatRegexp() *regexp.Regexp { return f.formatRe }

func (f *FieldSpec) compile() []error {
	var errs []error
	for i := range f.Patterns {
		if err := f.Patterns[i].Compile(); err != nil {
			errs = append(errs, fmt.Errorf("field %s pattern %d: %w", f.Name, i, err))
		}
	}
	f.formatRe = nil
	if f.Format != "" {
		re, err := regexp.Compile(f.Format)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s format: %w", f.Name, err))
		} else {
			f.formatRe = re
		}
	}
	return errs
}

// Indicator is a classifier pattern.
type Indicator struct {
	Expr string
	re   *regexp.Regexp
	err  error
}

// Regexp returns the compiled indicator, or nil when it failed to compile.
func (i *Indicator) Regexp() *regexp.Regexp { return i.re }

// Err returns the compile error, if any.
func (i *Indicator) Err() error { return i.err }

func (i *Indicator) compile() error {
	i.re, i.err = regexp.Compile(`(?i)` + i.Expr)
	if i.err != nil {
		i.err = fmt.Errorf("compile indicator %q: %w", i.Expr, i.err)
	}
	return i.err
}

// Finding is a single cross-field result.
type Finding struct {
	Severity dto.Severity
	Message  string
}

func warning(format string, args ...any) Finding {
	return Finding{Severity: dto.SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) Finding {
	return Finding{Severity: dto.SeverityError, Message: fmt.Sprintf(format, args...)}
}

// CrossCheck is a document specific relationship check between fields.
type CrossCheck struct {
	Name  string
	Check func(r *dto.ExtractionResult) []Finding
}

// Imputation estimates a missing field from other fields.
type Imputation struct {
	Field   string
	Formula string
	Inputs  []string
	Compute func(r *dto.ExtractionResult) float64
}

// Form is the capability set a document type provides to the pipeline.
type Form interface {
	Type() dto.DocumentType
	FieldSpecs() []FieldSpec
	Indicators() []Indicator
	CrossChecks() []CrossCheck
	Imputations() []Imputation
	MinimalFields() []string
	SupportedFields() []string
}

// Definition is the table-driven Form implementation used for every
// supported type.
type Definition struct {
	DocType       dto.DocumentType
	Fields        []FieldSpec
	IndicatorList []Indicator
	Checks        []CrossCheck
	Imputes       []Imputation
	Minimal       []string
}

func (d *Definition) Type() dto.DocumentType    { return d.DocType }
func (d *Definition) FieldSpecs() []FieldSpec   { return d.Fields }
func (d *Definition) Indicators() []Indicator   { return d.IndicatorList }
func (d *Definition) CrossChecks() []CrossCheck { return d.Checks }
func (d *Definition) Imputations() []Imputation { return d.Imputes }
func (d *Definition) MinimalFields() []string   { return d.Minimal }

// SupportedFields lists field names in extraction order.
func (d *Definition) SupportedFields() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the named spec or nil.
func (d *Definition) Field(name string) *FieldSpec {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

func (d *Definition) compile() []error {
	var errs []error
	for i := range d.Fields {
		errs = append(errs, d.Fields[i].compile()...)
	}
	for i := range d.IndicatorList {
		if err := d.IndicatorList[i].compile(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// clone copies the definition deeply enough that overrides never touch
// the built-in tables.
func (d *Definition) clone() *Definition {
	c := *d
	c.Fields = make([]FieldSpec, len(d.Fields))
	for i, f := range d.Fields {
		f.Patterns = append([]Pattern(nil), f.Patterns...)
		c.Fields[i] = f
	}
	c.IndicatorList = append([]Indicator(nil), d.IndicatorList...)
	c.Checks = append([]CrossCheck(nil), d.Checks...)
	c.Imputes = append([]Imputation(nil), d.Imputes...)
	c.Minimal = append([]string(nil), d.Minimal...)
	return &c
}

// helpers for the form tables

func label(expr string) Pattern { return Pattern{Label: expr} }

func keywords(r *Range, kws ...string) Pattern { return Pattern{Keywords: kws, Range: r} }

func fallback(min, max float64) Pattern { return Pattern{Range: &Range{Min: min, Max: max}} }

func rng(min, max float64) *Range { return &Range{Min: min, Max: max} }

func indicators(exprs ...string) []Indicator {
	out := make([]Indicator, len(exprs))
	for i, e := range exprs {
		out[i] = Indicator{Expr: e}
	}
	return out
}

// num returns a field's numeric value, treating missing fields as zero.
func num(r *dto.ExtractionResult, name string) float64 {
	v, _ := r.Number(name)
	return v
}

func has(r *dto.ExtractionResult, name string) bool {
	_, ok := r.Number(name)
	return ok
}
