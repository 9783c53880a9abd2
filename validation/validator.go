// Package validation checks extraction results and repairs what it can.
//
// Validation runs five fixed stages: field-level checks, cross-field
// checks, business rules, reconciliation and scoring. Every stage runs;
// findings accumulate and never abort later stages.
package validation

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/utils"
)

// DefaultMagnitudeCap is the absolute value above which any amount is
// flagged.
const DefaultMagnitudeCap = 10_000_000

const (
	errorPenalty      = 0.1
	maxErrorPenalty   = 0.5
	warningPenalty    = 0.02
	maxWarningPenalty = 0.3
	reconcileBonus    = 0.1
)

// Validator is safe for concurrent use.
type Validator struct {
	magnitudeCap float64
	logger       *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithMagnitudeCap overrides DefaultMagnitudeCap. Non-positive values are ignored.
func WithMagnitudeCap(limit float64) Option {
	return func(v *Validator) {
		if limit > 0 {
			v.magnitudeCap = limit
		}
	}
}

// New builds a Validator.
func New(logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{magnitudeCap: DefaultMagnitudeCap, logger: logger}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// run accumulates the findings of one validation pass.
type run struct {
	form    forms.Form
	res     *dto.ExtractionResult
	specs   map[string]*forms.FieldSpec
	out     dto.ValidationOutcome
	missing []string // required or minimal fields without a value, in report order
	imputed map[string]bool
}

func (r *run) warn(format string, args ...any) {
	r.out.Warnings = append(r.out.Warnings, fmt.Sprintf(format, args...))
}

func (r *run) fail(format string, args ...any) {
	r.out.Errors = append(r.out.Errors, fmt.Sprintf(format, args...))
}

// Validate runs all stages against res. Imputed values are written back
// into res with method "imputed".
func (v *Validator) Validate(res *dto.ExtractionResult, form forms.Form) dto.ValidationOutcome {
	r := &run{
		form:    form,
		res:     res,
		specs:   make(map[string]*forms.FieldSpec),
		imputed: make(map[string]bool),
		out: dto.ValidationOutcome{
			Errors:   []string{},
			Warnings: []string{},
		},
	}
	specs := form.FieldSpecs()
	for i := range specs {
		r.specs[specs[i].Name] = &specs[i]
	}

	v.fieldLevel(r)
	v.crossField(r)
	v.businessRules(r)
	reconciled := v.reconcile(r)
	v.score(r, reconciled)

	return r.out
}

func (v *Validator) fieldLevel(r *run) {
	for _, f := range r.res.Fields {
		spec, ok := r.specs[f.Name]
		if !ok {
			continue
		}
		if f.Value == nil || (f.Value.Kind == dto.TypeString && f.Value.Text == "") {
			if spec.Required {
				r.missing = append(r.missing, f.Name)
			}
			continue
		}

		if n, ok := f.Value.Numeric(); ok && f.Method != dto.MethodDefault {
			r.checkRange(spec, n)
		}

		if re := spec.FormatRegexp(); re != nil && f.Method != dto.MethodDefault && !re.MatchString(f.Value.String()) {
			r.warn("Field %s has invalid format: %s", f.Name, f.Value.String())
		}
	}
}

func (r *run) checkRange(spec *forms.FieldSpec, n float64) {
	if spec.Plausible == nil {
		return
	}
	switch {
	case n < spec.Plausible.Min:
		r.warn("Field %s value %s is below minimum %s", spec.Name, formatNumber(n), formatNumber(spec.Plausible.Min))
	case n > spec.Plausible.Max:
		r.warn("Field %s value %s is above maximum %s", spec.Name, formatNumber(n), formatNumber(spec.Plausible.Max))
	}
}

func (v *Validator) checkMagnitude(r *run, name string, n float64) {
	if math.Abs(n) > v.magnitudeCap {
		r.warn("Field %s has extremely large value: %s", name, formatNumber(n))
	}
	if spec := r.specs[name]; spec != nil && spec.NonNegative && n < 0 {
		r.warn("Field %s has negative value: %s", name, formatNumber(n))
	}
}

func (v *Validator) crossField(r *run) {
	for _, check := range r.form.CrossChecks() {
		for _, finding := range check.Check(r.res) {
			if finding.Severity == dto.SeverityError {
				r.fail("%s", finding.Message)
			} else {
				r.warn("%s", finding.Message)
			}
		}
	}
}

func (v *Validator) businessRules(r *run) {
	for _, f := range r.res.Fields {
		n, ok := f.Value.Numeric()
		if !ok {
			continue
		}
		v.checkMagnitude(r, f.Name, n)
	}

	for _, name := range r.form.MinimalFields() {
		if f := r.res.Field(name); f != nil && f.Value != nil {
			continue
		}
		if !contains(r.missing, name) {
			r.missing = append(r.missing, name)
		}
	}
}

// reconcile imputes missing fields from the form's formulas and then
// reports the missing fields nothing could recover. It reports whether
// reconciliation succeeded: at least one imputation fired and no
// required field is left without a value.
func (v *Validator) reconcile(r *run) bool {
	for _, imp := range r.form.Imputations() {
		target := r.res.Field(imp.Field)
		if target != nil && target.Value != nil {
			continue
		}
		if !anyPresent(r.res, imp.Inputs) {
			continue
		}
		value := utils.RoundCents(imp.Compute(r.res))
		if value == 0 {
			continue
		}

		kind := dto.TypeCurrency
		if spec := r.specs[imp.Field]; spec != nil {
			kind = spec.Type
		}
		if target == nil {
			r.res.Fields = append(r.res.Fields, dto.ExtractedField{Name: imp.Field})
			target = &r.res.Fields[len(r.res.Fields)-1]
		}
		target.Value = dto.NumberValue(kind, value)
		target.FoundBy = nil
		target.Method = dto.MethodImputed
		r.imputed[imp.Field] = true

		r.out.Adjustments = append(r.out.Adjustments, dto.Adjustment{Field: imp.Field, Value: value, Formula: imp.Formula})
		r.out.ConfidenceImprovements = append(r.out.ConfidenceImprovements,
			fmt.Sprintf("Imputed %s = %s from %s", imp.Field, formatNumber(value), imp.Formula))
		r.warn("Field %s was not found and was estimated as %s (%s)", imp.Field, formatNumber(value), imp.Formula)
		// imputed values get the same range and magnitude checks as extracted ones
		if spec := r.specs[imp.Field]; spec != nil {
			r.checkRange(spec, value)
		}
		v.checkMagnitude(r, imp.Field, value)
		v.logger.Warn("field imputed", "document_type", r.form.Type(), "field", imp.Field, "value", value, "formula", imp.Formula)
	}

	requiredLeft := false
	for _, name := range r.missing {
		if r.imputed[name] {
			continue
		}
		if spec := r.specs[name]; spec != nil && spec.Required {
			requiredLeft = true
			r.fail("Field %s is required", name)
		} else {
			r.fail("Required field %s is missing", name)
		}
	}

	return len(r.imputed) > 0 && !requiredLeft
}

func (v *Validator) score(r *run, reconciled bool) {
	score := 1.0
	score -= math.Min(maxErrorPenalty, errorPenalty*float64(len(r.out.Errors)))
	score -= math.Min(maxWarningPenalty, warningPenalty*float64(len(r.out.Warnings)))
	if reconciled {
		score += reconcileBonus
	}
	score = math.Max(0, math.Min(1, score))

	r.out.Score = math.Round(score*100) / 100
	r.out.Valid = len(r.out.Errors) == 0
}

func anyPresent(res *dto.ExtractionResult, names []string) bool {
	for _, name := range names {
		if _, ok := res.Number(name); ok {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
