package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

// Pipeline step names, in execution order.
const (
	StepNormalization  = "document_normalization"
	StepImageCleanup   = "image_cleanup"
	StepOCR            = "ocr_processing"
	StepClassification = "classification"
	StepExtraction     = "field_extraction"
	StepValidation     = "validation"
)

// DocumentContext carries per-document state through the pipeline. It is
// owned by a single goroutine and never shared between documents.
type DocumentContext struct {
	ID       string
	Filename string
	Type     dto.DocumentType
	Logger   *slog.Logger

	started time.Time
	steps   []dto.StepTiming
}

func newDocumentContext(logger *slog.Logger, filename string) *DocumentContext {
	id := uuid.NewString()
	attrs := []any{"document_id", id}
	if filename != "" {
		attrs = append(attrs, "filename", filename)
	}
	return &DocumentContext{
		ID:       id,
		Filename: filename,
		Logger:   logger.With(attrs...),
		started:  time.Now(),
	}
}

func (d *DocumentContext) setType(t dto.DocumentType) {
	d.Type = t
	d.Logger = d.Logger.With("document_type", t)
}

// run executes one stage, recording its duration and status. The stage is
// not started if ctx is already done. A panic inside the stage is turned
// into a system error.
func (d *DocumentContext) run(ctx context.Context, step string, fn func() error) (err error) {
	if cerr := ctx.Err(); cerr != nil {
		d.record(step, dto.StepSkipped, 0, cerr)
		return dto.NewPipelineError(dto.KindSystem, "processing cancelled before "+step, cerr)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.Logger.Error("pipeline stage panicked", "step", step, "panic", r, "stack", string(debug.Stack()))
			err = dto.NewPipelineError(dto.KindSystem, "internal error during "+step, fmt.Errorf("panic: %v", r))
		}
		status := dto.StepCompleted
		if err != nil {
			status = dto.StepFailed
		}
		d.record(step, status, time.Since(start), err)
	}()

	return fn()
}

func (d *DocumentContext) skip(step string) {
	d.record(step, dto.StepSkipped, 0, nil)
}

func (d *DocumentContext) record(step, status string, elapsed time.Duration, err error) {
	t := dto.StepTiming{Step: step, Status: status, Duration: elapsed.Seconds()}
	if err != nil {
		t.Error = err.Error()
	}
	d.steps = append(d.steps, t)
	d.Logger.Debug("pipeline step", "step", step, "status", status, "duration", elapsed)
}

// Steps returns the recorded stage timings.
func (d *DocumentContext) Steps() []dto.StepTiming {
	return append([]dto.StepTiming(nil), d.steps...)
}

// Elapsed returns seconds since the document was received.
func (d *DocumentContext) Elapsed() float64 {
	return time.Since(d.started).Seconds()
}
