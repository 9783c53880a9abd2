package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"github.com/Aashish23092/tax-form-extraction/classifier"
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/extractor"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/utils"
	"github.com/Aashish23092/tax-form-extraction/validation"
)

const (
	// minPDFTextChars is the text layer size below which a PDF is treated
	// as scanned and sent to OCR.
	minPDFTextChars      = 20
	nativeTextConfidence = 1.0

	// DefaultConfidenceThreshold is the field confidence below which a
	// resolved field is reported as low confidence.
	DefaultConfidenceThreshold = 0.7

	fallbackWeight = 0.5
	defaultWeight  = 0.3
	imputedWeight  = 0.4
)

var pipelineSteps = []string{
	StepNormalization,
	StepImageCleanup,
	StepOCR,
	StepClassification,
	StepExtraction,
	StepValidation,
}

// Source is one document to process. Exactly one of Text, PDF or Images
// is expected; Text wins when several are set.
type Source struct {
	Text     string
	PDF      []byte
	Images   [][]byte
	Filename string
	Password string
}

// TaxService is the pipeline orchestrator. It holds only read-only
// collaborators and is safe for concurrent use.
type TaxService struct {
	registry   *forms.Registry
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	validator  *validation.Validator
	reconciler *OCRReconciler
	pdf        PDFProcessor
	normalizer *ImageNormalizer
	threshold  float64
	logger     *slog.Logger
}

// Option configures a TaxService.
type Option func(*TaxService)

func WithExtractor(e *extractor.Extractor) Option { return func(s *TaxService) { s.extractor = e } }

func WithValidator(v *validation.Validator) Option { return func(s *TaxService) { s.validator = v } }

func WithNormalizer(n *ImageNormalizer) Option { return func(s *TaxService) { s.normalizer = n } }

func WithLogger(l *slog.Logger) Option { return func(s *TaxService) { s.logger = l } }

// WithConfidenceThreshold sets the low confidence cutoff. Zero disables it.
func WithConfidenceThreshold(t float64) Option {
	return func(s *TaxService) { s.threshold = t }
}

func NewTaxService(registry *forms.Registry, reconciler *OCRReconciler, pdf PDFProcessor, opts ...Option) *TaxService {
	s := &TaxService{
		registry:   registry,
		reconciler: reconciler,
		pdf:        pdf,
		threshold:  DefaultConfidenceThreshold,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.extractor == nil {
		s.extractor = extractor.New(s.logger)
	}
	if s.validator == nil {
		s.validator = validation.New(s.logger)
	}
	if s.normalizer == nil {
		s.normalizer = NewImageNormalizer()
	}
	if s.pdf == nil {
		s.pdf = NewPDFProcessor(s.logger)
	}
	s.classifier = classifier.New(registry, s.logger)
	return s
}

// Registry returns the pattern library in use.
func (s *TaxService) Registry() *forms.Registry { return s.registry }

// Classifier returns the document classifier.
func (s *TaxService) Classifier() *classifier.Classifier { return s.classifier }

// ProcessDocument runs the pipeline on already extracted text. declared
// may be a type name, an alias, or empty/"auto" to detect the type.
func (s *TaxService) ProcessDocument(ctx context.Context, text, declared string) *dto.ExtractionEnvelope {
	return s.Process(ctx, Source{Text: text}, declared)
}

// Process runs the full pipeline on a document. It never returns nil and
// never panics; failures are reported in the envelope.
func (s *TaxService) Process(ctx context.Context, src Source, declared string) (env *dto.ExtractionEnvelope) {
	dc := newDocumentContext(s.logger, src.Filename)
	ocr := dto.CombinedText{Confidence: nativeTextConfidence}

	defer func() {
		if r := recover(); r != nil {
			dc.Logger.Error("pipeline panicked", "panic", r)
			env = s.failure(dc, dto.NewPipelineError(dto.KindSystem, "Internal error while processing the document", fmt.Errorf("panic: %v", r)), ocr)
		}
	}()

	auto := isAuto(declared)
	var docType dto.DocumentType
	if !auto {
		t, err := dto.ParseDocumentType(declared)
		if err != nil {
			return s.failure(dc, dto.NewPipelineError(dto.KindClassificationMismatch, fmt.Sprintf("Unsupported document type %q", declared), err), ocr)
		}
		docType = t
		dc.setType(t)
	}

	var (
		text  string
		pages []image.Image
	)
	if err := dc.run(ctx, StepNormalization, func() error {
		var err error
		text, pages, err = s.acquire(dc, src)
		return err
	}); err != nil {
		return s.failure(dc, err, ocr)
	}

	if len(pages) > 0 {
		if err := dc.run(ctx, StepImageCleanup, func() error {
			pages = s.normalizer.NormalizeAll(pages)
			return nil
		}); err != nil {
			return s.failure(dc, err, ocr)
		}
		if err := dc.run(ctx, StepOCR, func() error {
			var err error
			text, ocr, err = s.recognize(ctx, pages)
			return err
		}); err != nil {
			return s.failure(dc, err, ocr)
		}
	} else {
		dc.skip(StepImageCleanup)
		dc.skip(StepOCR)
	}

	var form forms.Form
	if err := dc.run(ctx, StepClassification, func() error {
		t, err := s.classify(text, docType, auto)
		if err != nil {
			return err
		}
		if auto {
			docType = t
			dc.setType(t)
		}
		form, err = s.registry.Lookup(docType)
		return err
	}); err != nil {
		return s.failure(dc, err, ocr)
	}

	var res *dto.ExtractionResult
	if err := dc.run(ctx, StepExtraction, func() error {
		res = s.extractor.ExtractAll(text, form)
		return nil
	}); err != nil {
		return s.failure(dc, err, ocr)
	}

	var outcome dto.ValidationOutcome
	if err := dc.run(ctx, StepValidation, func() error {
		outcome = s.validator.Validate(res, form)
		return nil
	}); err != nil {
		return s.failure(dc, err, ocr)
	}

	res.Timings = dc.Steps()
	env = &dto.ExtractionEnvelope{
		Success:          true,
		Data:             make(map[string]*dto.Value, len(res.Fields)),
		ConfidenceScores: make(map[string]float64, len(res.Fields)),
		Validation:       outcome,
		RawTextExcerpt:   res.RawTextExcerpt,
		Metadata:         s.metadata(dc, ocr),
	}
	for _, f := range res.Fields {
		conf := FieldConfidence(f, ocr.Confidence)
		env.Data[f.Name] = f.Value
		env.ConfidenceScores[f.Name] = conf
		// default zeros are never reported; they were not read from the text
		if f.Value != nil && f.Method != dto.MethodDefault && conf < s.threshold {
			env.Metadata.LowConfidenceFields = append(env.Metadata.LowConfidenceFields, f.Name)
		}
	}
	if len(env.Metadata.LowConfidenceFields) > 0 {
		dc.Logger.Warn("fields below confidence threshold", "threshold", s.threshold, "fields", env.Metadata.LowConfidenceFields)
	}

	dc.Logger.Info("document processed",
		"valid", outcome.Valid,
		"score", outcome.Score,
		"errors", len(outcome.Errors),
		"warnings", len(outcome.Warnings),
		"elapsed", env.Metadata.ProcessingTime)
	return env
}

// acquire obtains text from the source, or page images when the source
// needs OCR.
func (s *TaxService) acquire(dc *DocumentContext, src Source) (string, []image.Image, error) {
	switch {
	case strings.TrimSpace(src.Text) != "":
		return utils.CleanText(src.Text), nil, nil

	case len(src.PDF) > 0:
		text, err := s.pdf.ExtractText(src.PDF, src.Password)
		if err != nil {
			dc.Logger.Warn("pdf text layer unreadable", "err", err)
		}
		text = utils.CleanText(text)
		if utils.HasUsableText(text, minPDFTextChars) {
			return text, nil, nil
		}

		dc.Logger.Info("pdf text layer too short, falling back to OCR", "chars", len(text))
		pages, err := s.pdf.ExtractImages(src.PDF, src.Password)
		if err != nil {
			return "", nil, dto.NewPipelineError(dto.KindAcquisition, "Failed to read the PDF document", err)
		}
		if len(pages) == 0 {
			if utils.HasUsableText(text, 1) {
				return text, nil, nil
			}
			return "", nil, noText()
		}
		return "", pages, nil

	case len(src.Images) > 0:
		pages := make([]image.Image, 0, len(src.Images))
		for i, data := range src.Images {
			img, err := s.normalizer.Decode(data)
			if err != nil {
				return "", nil, dto.NewPipelineError(dto.KindAcquisition, fmt.Sprintf("Failed to decode image %d", i+1), err)
			}
			pages = append(pages, img)
		}
		return "", pages, nil

	default:
		return "", nil, noText()
	}
}

func (s *TaxService) recognize(ctx context.Context, pages []image.Image) (string, dto.CombinedText, error) {
	if s.reconciler == nil || len(s.reconciler.engines) == 0 {
		return "", dto.CombinedText{}, dto.NewPipelineError(dto.KindAcquisition, "The document needs OCR but no OCR engine is available", dto.ErrNoEnginesAvailable)
	}
	combined, err := s.reconciler.ReconcilePages(ctx, pages)
	if err != nil {
		return "", combined, dto.NewPipelineError(dto.KindSystem, "processing cancelled during "+StepOCR, err)
	}
	text := utils.CleanText(combined.Text)
	if !utils.HasUsableText(text, 1) {
		return "", combined, noText()
	}
	return text, combined, nil
}

func (s *TaxService) classify(text string, declared dto.DocumentType, auto bool) (dto.DocumentType, error) {
	if auto {
		t, ok := s.classifier.Detect(text)
		if !ok {
			return "", dto.NewPipelineError(dto.KindClassificationMismatch,
				"This document does not appear to be a supported tax form (no form indicators found)", dto.ErrWrongDocumentType)
		}
		return t, nil
	}

	ok, err := s.classifier.Classify(text, declared)
	if err != nil {
		return "", dto.NewPipelineError(dto.KindClassificationMismatch, err.Error(), err)
	}
	if !ok {
		name := declared.DisplayName()
		return "", dto.NewPipelineError(dto.KindClassificationMismatch,
			fmt.Sprintf("This document does not appear to be a %s (%s indicators not found). Please upload the correct document type.", name, name),
			dto.ErrWrongDocumentType)
	}
	return declared, nil
}

// failure builds the neutral envelope returned when the pipeline stops
// early. Steps that never ran are reported as skipped.
func (s *TaxService) failure(dc *DocumentContext, err error, ocr dto.CombinedText) *dto.ExtractionEnvelope {
	kind := dto.KindOf(err)
	msg := err.Error()
	var pe *dto.PipelineError
	if errors.As(err, &pe) {
		msg = pe.Message
	}

	ran := make(map[string]bool)
	for _, st := range dc.steps {
		ran[st.Step] = true
	}
	for _, step := range pipelineSteps {
		if !ran[step] {
			dc.skip(step)
		}
	}

	if kind == dto.KindSystem {
		dc.Logger.Error("document processing failed", "kind", kind, "err", err)
	} else {
		dc.Logger.Warn("document rejected", "kind", kind, "err", err)
	}

	return &dto.ExtractionEnvelope{
		Success:          false,
		Error:            msg,
		ErrorKind:        kind,
		Data:             map[string]*dto.Value{},
		ConfidenceScores: map[string]float64{},
		Validation:       dto.ValidationOutcome{Errors: []string{}, Warnings: []string{}},
		Metadata:         s.metadata(dc, ocr),
	}
}

func (s *TaxService) metadata(dc *DocumentContext, ocr dto.CombinedText) dto.EnvelopeMetadata {
	return dto.EnvelopeMetadata{
		DocumentID:     dc.ID,
		DocumentType:   dc.Type,
		ProcessingTime: dc.Elapsed(),
		Steps:          dc.Steps(),
		OCRConfidence:  ocr.Confidence,
		Engines:        ocr.Engines,
		Filename:       dc.Filename,
	}
}

// FieldConfidence combines text confidence with how the field was found:
// earlier patterns weigh more than later ones, and fallbacks, defaults
// and imputations weigh less than any pattern match.
func FieldConfidence(f dto.ExtractedField, textConfidence float64) float64 {
	var weight float64
	switch f.Method {
	case dto.MethodPattern:
		weight = 1.0
		if f.FoundBy != nil {
			weight = math.Max(0.5, 1-0.1*float64(*f.FoundBy))
		}
	case dto.MethodFallback:
		weight = fallbackWeight
	case dto.MethodDefault:
		weight = defaultWeight
	case dto.MethodImputed:
		weight = imputedWeight
	default:
		return 0
	}
	return math.Round(textConfidence*weight*100) / 100
}

func isAuto(declared string) bool {
	d := strings.TrimSpace(declared)
	return d == "" || strings.EqualFold(d, "auto")
}

func noText() error {
	return dto.NewPipelineError(dto.KindAcquisition, "No usable text could be extracted from the document", dto.ErrNoUsableText)
}
