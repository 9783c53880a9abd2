package dto

import (
	"fmt"
	"strings"
)

// DocumentType identifies the tax form being processed. It selects the
// pattern library and indicator set used for a document.
type DocumentType string

const (
	DocTypeScheduleC DocumentType = "schedule_c"
	DocTypeForm1040  DocumentType = "form_1040"
	DocTypeScheduleE DocumentType = "schedule_e"
	DocTypeScheduleB DocumentType = "schedule_b"
	DocTypeForm1065  DocumentType = "form_1065"
	DocTypeForm1120  DocumentType = "form_1120"
	DocTypeW2        DocumentType = "w2"
)

// AllDocumentTypes lists every supported type in registry order.
var AllDocumentTypes = []DocumentType{
	DocTypeScheduleC,
	DocTypeForm1040,
	DocTypeScheduleE,
	DocTypeScheduleB,
	DocTypeForm1065,
	DocTypeForm1120,
	DocTypeW2,
}

var displayNames = map[DocumentType]string{
	DocTypeScheduleC: "Schedule C",
	DocTypeForm1040:  "Form 1040",
	DocTypeScheduleE: "Schedule E",
	DocTypeScheduleB: "Schedule B",
	DocTypeForm1065:  "Form 1065",
	DocTypeForm1120:  "Form 1120",
	DocTypeW2:        "W-2",
}

var typeAliases = map[string]DocumentType{
	"schedule_c": DocTypeScheduleC,
	"schedulec":  DocTypeScheduleC,
	"schedule c": DocTypeScheduleC,
	"sch_c":      DocTypeScheduleC,
	"form_1040":  DocTypeForm1040,
	"form1040":   DocTypeForm1040,
	"form 1040":  DocTypeForm1040,
	"1040":       DocTypeForm1040,
	"schedule_e": DocTypeScheduleE,
	"schedulee":  DocTypeScheduleE,
	"schedule e": DocTypeScheduleE,
	"schedule_b": DocTypeScheduleB,
	"scheduleb":  DocTypeScheduleB,
	"schedule b": DocTypeScheduleB,
	"form_1065":  DocTypeForm1065,
	"form1065":   DocTypeForm1065,
	"form 1065":  DocTypeForm1065,
	"1065":       DocTypeForm1065,
	"form_1120":  DocTypeForm1120,
	"form1120":   DocTypeForm1120,
	"form 1120":  DocTypeForm1120,
	"1120":       DocTypeForm1120,
	"w2":         DocTypeW2,
	"w-2":        DocTypeW2,
	"w_2":        DocTypeW2,
	"form_w2":    DocTypeW2,
	"form w-2":   DocTypeW2,
}

// ParseDocumentType resolves a user supplied identifier (including the
// common aliases) to a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if dt, ok := typeAliases[key]; ok {
		return dt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDocumentType, s)
}

// DisplayName returns the human name printed on the form, e.g. "Schedule C".
func (d DocumentType) DisplayName() string {
	if name, ok := displayNames[d]; ok {
		return name
	}
	return string(d)
}

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ExtractionMethod records how a field value was obtained.
type ExtractionMethod string

const (
	MethodPattern  ExtractionMethod = "pattern"
	MethodFallback ExtractionMethod = "fallback"
	MethodDefault  ExtractionMethod = "default"
	MethodImputed  ExtractionMethod = "imputed"
	MethodNone     ExtractionMethod = ""
)

// ExtractedField is the resolved value of one field. Value is nil when
// the field could not be resolved.
type ExtractedField struct {
	Name    string           `json:"name"`
	Value   *Value           `json:"value"`
	FoundBy *int             `json:"found_by"`
	Method  ExtractionMethod `json:"method,omitempty"`
}

// Found reports whether the field has a value.
func (f ExtractedField) Found() bool {
	return f.Value != nil
}

// StepTiming is one pipeline stage record.
type StepTiming struct {
	Step     string  `json:"step"`
	Status   string  `json:"status"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
}

const (
	StepCompleted = "completed"
	StepSkipped   = "skipped"
	StepFailed    = "failed"
)

// ExtractionResult holds the fields extracted from one document, in
// pattern library order.
type ExtractionResult struct {
	DocumentType   DocumentType     `json:"document_type"`
	Fields         []ExtractedField `json:"fields"`
	RawTextExcerpt string           `json:"raw_text_excerpt"`
	Timings        []StepTiming     `json:"timings,omitempty"`
}

// Field returns the named field or nil.
func (r *ExtractionResult) Field(name string) *ExtractedField {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Number returns the numeric value of a field if it was resolved.
func (r *ExtractionResult) Number(name string) (float64, bool) {
	f := r.Field(name)
	if f == nil || f.Value == nil {
		return 0, false
	}
	return f.Value.Numeric()
}

// Adjustment records a value imputed during reconciliation.
type Adjustment struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value"`
	Formula string  `json:"formula"`
}

// ValidationOutcome is the result of the five validation stages.
type ValidationOutcome struct {
	Valid                  bool         `json:"valid"`
	Errors                 []string     `json:"errors"`
	Warnings               []string     `json:"warnings"`
	Score                  float64      `json:"score"`
	Adjustments            []Adjustment `json:"adjustments,omitempty"`
	ConfidenceImprovements []string     `json:"confidence_improvements,omitempty"`
}

// OCREngineResult is the output of a single engine invocation.
type OCREngineResult struct {
	EngineID   string  `json:"engine_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// CombinedText is the reconciled output of all engines for one image.
type CombinedText struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Engines    []string `json:"engines"`
}

// EngineStatus is the startup probe result of one OCR engine.
type EngineStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}
