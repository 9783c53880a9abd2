package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
)

const scheduleCText = `SCHEDULE C (Form 1040) Profit or Loss From Business 2023
Name of proprietor Jane Q Sample
6 Other income 0.00
12 Depletion 0.00
13 Depreciation and section 179 expense deduction 12,400.00
24b Deductible meals 4,150.00
31 Net profit or (loss). Subtract line 30 from line 29 68,863.00`

type fakePDF struct {
	text    string
	textErr error
	pages   []image.Image
	panics  bool
}

func (f *fakePDF) ExtractText([]byte, string) (string, error) {
	if f.panics {
		panic("corrupt xref table")
	}
	return f.text, f.textErr
}

func (f *fakePDF) ExtractImages([]byte, string) ([]image.Image, error) {
	return f.pages, nil
}

func newService(engines []Engine, pdf PDFProcessor) *TaxService {
	return NewTaxService(forms.DefaultRegistry(nil), NewOCRReconciler(engines, time.Second, 2, nil), pdf)
}

func stepStatuses(env *dto.ExtractionEnvelope) map[string]string {
	out := make(map[string]string)
	for _, s := range env.Metadata.Steps {
		out[s.Step] = s.Status
	}
	return out
}

func TestProcessDocumentScheduleC(t *testing.T) {
	env := newService(nil, nil).ProcessDocument(context.Background(), scheduleCText, "schedule_c")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, 68863.0, env.Data["net_profit"].Number)
	assert.Equal(t, 12400.0, env.Data["depreciation"].Number)
	assert.True(t, env.Validation.Valid)
	assert.Equal(t, 1.0, env.Validation.Score)

	assert.Equal(t, 1.0, env.ConfidenceScores["net_profit"])
	assert.Equal(t, 0.3, env.ConfidenceScores["home_office"])

	assert.Equal(t, dto.DocTypeScheduleC, env.Metadata.DocumentType)
	assert.NotEmpty(t, env.Metadata.DocumentID)
	assert.Equal(t, 1.0, env.Metadata.OCRConfidence)
	assert.Contains(t, env.RawTextExcerpt, "Net profit")

	var names []string
	for _, s := range env.Metadata.Steps {
		names = append(names, s.Step)
	}
	assert.Equal(t, pipelineSteps, names)
	statuses := stepStatuses(env)
	assert.Equal(t, dto.StepSkipped, statuses[StepOCR])
	assert.Equal(t, dto.StepCompleted, statuses[StepValidation])
}

func TestProcessDocumentWrongType(t *testing.T) {
	env := newService(nil, nil).ProcessDocument(context.Background(), "Fresh Market\nMilk 3.99\nTotal 6.48", "schedule_c")

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "does not appear to be")
	assert.Contains(t, env.Error, "Schedule C indicators not found")
	assert.Equal(t, dto.KindClassificationMismatch, env.ErrorKind)
	assert.Empty(t, env.Data)

	statuses := stepStatuses(env)
	assert.Equal(t, dto.StepFailed, statuses[StepClassification])
	assert.Equal(t, dto.StepSkipped, statuses[StepExtraction])
	assert.Equal(t, dto.StepSkipped, statuses[StepValidation])
}

func TestProcessDocumentNoText(t *testing.T) {
	env := newService(nil, nil).ProcessDocument(context.Background(), "  \n\t ", "w2")

	assert.False(t, env.Success)
	assert.Equal(t, dto.KindAcquisition, env.ErrorKind)
	assert.Equal(t, dto.StepFailed, stepStatuses(env)[StepNormalization])
	assert.Equal(t, dto.StepSkipped, stepStatuses(env)[StepClassification])
}

func TestProcessDocumentUnsupportedType(t *testing.T) {
	env := newService(nil, nil).ProcessDocument(context.Background(), scheduleCText, "form_990")
	assert.False(t, env.Success)
	assert.Equal(t, dto.KindClassificationMismatch, env.ErrorKind)
	assert.Contains(t, env.Error, "form_990")
}

func TestProcessDocumentAutoDetect(t *testing.T) {
	env := newService(nil, nil).ProcessDocument(context.Background(), scheduleCText, "auto")
	require.True(t, env.Success, env.Error)
	assert.Equal(t, dto.DocTypeScheduleC, env.Metadata.DocumentType)

	env = newService(nil, nil).ProcessDocument(context.Background(), "Grocery receipt 12.00", "")
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "does not appear to be")
}

func TestProcessDocumentImputation(t *testing.T) {
	text := "Schedule C Profit or Loss From Business\n6 Other income 500.00\n12 Depletion 100.00\n13 Depreciation 200.00\n31 Net profit or (loss) see attached"
	env := newService(nil, nil).ProcessDocument(context.Background(), text, "Schedule C")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, 200.0, env.Data["net_profit"].Number)
	assert.Equal(t, 0.4, env.ConfidenceScores["net_profit"])
	require.Len(t, env.Validation.Adjustments, 1)
	assert.True(t, env.Validation.Valid)
	assert.Equal(t, []string{"net_profit"}, env.Metadata.LowConfidenceFields)

	svc := NewTaxService(forms.DefaultRegistry(nil), NewOCRReconciler(nil, time.Second, 1, nil), nil, WithConfidenceThreshold(0))
	env = svc.ProcessDocument(context.Background(), text, "schedule_c")
	require.True(t, env.Success, env.Error)
	assert.Empty(t, env.Metadata.LowConfidenceFields)
}

func TestProcessRecoversPanics(t *testing.T) {
	svc := newService(nil, &fakePDF{panics: true})
	env := svc.Process(context.Background(), Source{PDF: []byte("%PDF-1.7"), Filename: "return.pdf"}, "schedule_c")

	assert.False(t, env.Success)
	assert.Equal(t, dto.KindSystem, env.ErrorKind)
	assert.Equal(t, "return.pdf", env.Metadata.Filename)
	assert.Equal(t, dto.StepFailed, stepStatuses(env)[StepNormalization])
	assert.NotNil(t, env.Data)
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := newService(nil, nil).ProcessDocument(ctx, scheduleCText, "schedule_c")
	assert.False(t, env.Success)
	assert.Equal(t, dto.KindSystem, env.ErrorKind)
	for _, s := range env.Metadata.Steps {
		assert.Equal(t, dto.StepSkipped, s.Status, s.Step)
	}
}

func TestProcessPDFTextLayer(t *testing.T) {
	svc := newService(nil, &fakePDF{text: scheduleCText})
	env := svc.Process(context.Background(), Source{PDF: []byte("%PDF")}, "schedule_c")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, 68863.0, env.Data["net_profit"].Number)
	assert.Equal(t, dto.StepSkipped, stepStatuses(env)[StepOCR])
}

func TestProcessScannedPDFUsesOCR(t *testing.T) {
	engines := []Engine{
		&fakeEngine{name: "tesseract", text: scheduleCText, conf: 0.8},
		&fakeEngine{name: "paddleocr", text: "31 Net profit or loss 68,863.00", conf: 0.9},
	}
	svc := newService(engines, &fakePDF{text: "  ", pages: []image.Image{page(40)}})
	env := svc.Process(context.Background(), Source{PDF: []byte("%PDF")}, "schedule_c")

	require.True(t, env.Success, env.Error)
	assert.Equal(t, 68863.0, env.Data["net_profit"].Number)
	assert.Equal(t, 0.95, env.Metadata.OCRConfidence)
	assert.Equal(t, []string{"paddleocr", "tesseract"}, env.Metadata.Engines)
	assert.Equal(t, 0.95, env.ConfidenceScores["net_profit"])

	statuses := stepStatuses(env)
	assert.Equal(t, dto.StepCompleted, statuses[StepImageCleanup])
	assert.Equal(t, dto.StepCompleted, statuses[StepOCR])
}

func TestProcessImageWithoutEngines(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	env := newService(nil, nil).Process(context.Background(), Source{Images: [][]byte{buf.Bytes()}}, "w2")
	assert.False(t, env.Success)
	assert.Equal(t, dto.KindAcquisition, env.ErrorKind)
	assert.Equal(t, dto.StepFailed, stepStatuses(env)[StepOCR])
}

func TestProcessUndecodableImage(t *testing.T) {
	env := newService(nil, nil).Process(context.Background(), Source{Images: [][]byte{[]byte("not an image")}}, "w2")
	assert.False(t, env.Success)
	assert.Equal(t, dto.KindAcquisition, env.ErrorKind)
}

func TestProcessPDFTextError(t *testing.T) {
	svc := newService(nil, &fakePDF{textErr: errors.New("malformed"), pages: nil})
	env := svc.Process(context.Background(), Source{PDF: []byte("%PDF")}, "w2")
	assert.False(t, env.Success)
	assert.Equal(t, dto.KindAcquisition, env.ErrorKind)
}

func TestFieldConfidence(t *testing.T) {
	idx := func(i int) *int { return &i }
	tests := []struct {
		name  string
		field dto.ExtractedField
		text  float64
		want  float64
	}{
		{"first pattern", dto.ExtractedField{Method: dto.MethodPattern, FoundBy: idx(0)}, 1.0, 1.0},
		{"third pattern", dto.ExtractedField{Method: dto.MethodPattern, FoundBy: idx(2)}, 1.0, 0.8},
		{"late pattern floors", dto.ExtractedField{Method: dto.MethodPattern, FoundBy: idx(9)}, 1.0, 0.5},
		{"fallback", dto.ExtractedField{Method: dto.MethodFallback, FoundBy: idx(4)}, 0.9, 0.45},
		{"default", dto.ExtractedField{Method: dto.MethodDefault}, 1.0, 0.3},
		{"imputed", dto.ExtractedField{Method: dto.MethodImputed}, 0.8, 0.32},
		{"missing", dto.ExtractedField{}, 1.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldConfidence(tt.field, tt.text))
		})
	}
}
