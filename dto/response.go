package dto

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNoUsableText            = errors.New("no usable text could be obtained from the document")
	ErrWrongDocumentType       = errors.New("document type indicators not found")
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	ErrNoEnginesAvailable      = errors.New("no OCR engines available")
	ErrEmptyFile               = errors.New("file is empty")
	ErrInvalidFileType         = errors.New("invalid file type")
	ErrFileTooLarge            = errors.New("file too large")
)

// ErrorKind is the failure taxonomy of the pipeline.
type ErrorKind string

const (
	KindAcquisition            ErrorKind = "acquisition"
	KindClassificationMismatch ErrorKind = "classification_mismatch"
	KindFieldParse             ErrorKind = "field_parse"
	KindValidation             ErrorKind = "validation"
	KindSystem                 ErrorKind = "system"
)

// PipelineError is an error tagged with its taxonomy kind.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// NewPipelineError builds a PipelineError.
func NewPipelineError(kind ErrorKind, msg string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Message: msg, Cause: cause}
}

// KindOf returns the taxonomy kind of err, defaulting to system.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindSystem
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// EnvelopeMetadata describes how a document was processed.
type EnvelopeMetadata struct {
	DocumentID     string       `json:"document_id"`
	DocumentType   DocumentType `json:"document_type"`
	ProcessingTime float64      `json:"processing_time"`
	Steps          []StepTiming `json:"steps"`
	OCRConfidence  float64      `json:"ocr_confidence"`
	Engines        []string     `json:"engines,omitempty"`
	Filename       string       `json:"filename,omitempty"`
	// LowConfidenceFields lists resolved fields scoring below the
	// configured confidence threshold, in pattern library order.
	LowConfidenceFields []string `json:"low_confidence_fields,omitempty"`
}

// ExtractionEnvelope is the outward result of processing a document.
// It is always well formed, even on failure.
type ExtractionEnvelope struct {
	Success          bool               `json:"success"`
	Error            string             `json:"error,omitempty"`
	ErrorKind        ErrorKind          `json:"error_kind,omitempty"`
	Data             map[string]*Value  `json:"data"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	Validation       ValidationOutcome  `json:"validation"`
	RawTextExcerpt   string             `json:"raw_text_excerpt"`
	Metadata         EnvelopeMetadata   `json:"metadata"`
}
