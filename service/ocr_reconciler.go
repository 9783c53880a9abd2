package service

import (
	"context"
	"image"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Aashish23092/tax-form-extraction/dto"
)

const (
	corroborationBonus = 0.05
	maxCombinedConf    = 0.95
)

// Engine is an OCR collaborator.
type Engine interface {
	Name() string
	ExtractImageText(ctx context.Context, img image.Image) (string, float64, error)
}

// Prober is implemented by engines that can check their dependencies
// before use.
type Prober interface {
	Available(ctx context.Context) error
}

// ProbeEngines runs each engine's probe once and returns the engines that
// passed, in configured order, along with every engine's status.
func ProbeEngines(ctx context.Context, engines []Engine, logger *slog.Logger) ([]Engine, []dto.EngineStatus) {
	if logger == nil {
		logger = slog.Default()
	}
	active := make([]Engine, 0, len(engines))
	statuses := make([]dto.EngineStatus, 0, len(engines))
	for _, eng := range engines {
		status := dto.EngineStatus{Name: eng.Name(), Available: true}
		if p, ok := eng.(Prober); ok {
			if err := p.Available(ctx); err != nil {
				status.Available = false
				status.Error = err.Error()
				logger.Warn("ocr engine unavailable", "engine", eng.Name(), "err", err)
			}
		}
		if status.Available {
			active = append(active, eng)
			logger.Info("ocr engine enabled", "engine", eng.Name())
		}
		statuses = append(statuses, status)
	}
	return active, statuses
}

// OCRReconciler runs every engine on an image and merges their output.
type OCRReconciler struct {
	engines []Engine
	timeout time.Duration
	workers int
	logger  *slog.Logger
}

// NewOCRReconciler builds a reconciler. A non-positive workers value runs
// all engines at once.
func NewOCRReconciler(engines []Engine, timeout time.Duration, workers int, logger *slog.Logger) *OCRReconciler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if workers <= 0 {
		workers = len(engines)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRReconciler{
		engines: engines,
		timeout: timeout,
		workers: workers,
		logger:  logger,
	}
}

// Engines returns the names of the active engines.
func (r *OCRReconciler) Engines() []string {
	names := make([]string, len(r.engines))
	for i, e := range r.engines {
		names[i] = e.Name()
	}
	return names
}

// Reconcile runs the engines in parallel, each under its own timeout.
// Failed, timed out and empty results are dropped.
func (r *OCRReconciler) Reconcile(ctx context.Context, img image.Image) dto.CombinedText {
	if len(r.engines) == 0 {
		return dto.CombinedText{}
	}

	slots := make([]*dto.OCREngineResult, len(r.engines))
	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, eng := range r.engines {
		g.Go(func() error {
			ectx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			text, conf, err := r.call(ectx, eng, img)
			if err != nil {
				r.logger.Warn("ocr engine failed", "engine", eng.Name(), "err", err, "elapsed", time.Since(start))
				return nil
			}
			if strings.TrimSpace(text) == "" {
				r.logger.Debug("ocr engine returned no text", "engine", eng.Name())
				return nil
			}
			slots[i] = &dto.OCREngineResult{EngineID: eng.Name(), Text: text, Confidence: clamp01(conf)}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]dto.OCREngineResult, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			results = append(results, *s)
		}
	}
	return Combine(results)
}

// call runs one engine, abandoning it when ctx ends even if the engine
// itself ignores cancellation.
func (r *OCRReconciler) call(ctx context.Context, eng Engine, img image.Image) (string, float64, error) {
	type reply struct {
		text string
		conf float64
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, conf, err := eng.ExtractImageText(ctx, img)
		done <- reply{text, conf, err}
	}()

	select {
	case rep := <-done:
		return rep.text, rep.conf, rep.err
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

// ReconcilePages reconciles each page and joins the page texts with
// newlines. Confidence is the mean over pages that produced text.
func (r *OCRReconciler) ReconcilePages(ctx context.Context, pages []image.Image) (dto.CombinedText, error) {
	var texts []string
	var total float64
	seen := make(map[string]bool)
	out := dto.CombinedText{}

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return dto.CombinedText{}, err
		}
		combined := r.Reconcile(ctx, page)
		if combined.Text == "" {
			r.logger.Debug("page produced no text", "page", i+1)
			continue
		}
		texts = append(texts, combined.Text)
		total += combined.Confidence
		for _, name := range combined.Engines {
			if !seen[name] {
				seen[name] = true
				out.Engines = append(out.Engines, name)
			}
		}
	}

	if len(texts) == 0 {
		return out, nil
	}
	out.Text = strings.Join(texts, "\n")
	out.Confidence = total / float64(len(texts))
	return out, nil
}

// Combine ranks results by confidence. With two or more results the
// longest text wins and the top confidence gets a corroboration bonus.
func Combine(results []dto.OCREngineResult) dto.CombinedText {
	if len(results) == 0 {
		return dto.CombinedText{}
	}

	ranked := append([]dto.OCREngineResult(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })

	engines := make([]string, len(ranked))
	for i, res := range ranked {
		engines[i] = res.EngineID
	}

	if len(ranked) == 1 {
		return dto.CombinedText{Text: ranked[0].Text, Confidence: ranked[0].Confidence, Engines: engines}
	}

	longest := ranked[0]
	for _, res := range ranked[1:] {
		if utf8.RuneCountInString(res.Text) > utf8.RuneCountInString(longest.Text) {
			longest = res
		}
	}
	conf := ranked[0].Confidence + corroborationBonus
	if conf > maxCombinedConf {
		conf = maxCombinedConf
	}
	return dto.CombinedText{Text: longest.Text, Confidence: conf, Engines: engines}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
