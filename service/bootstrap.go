package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aashish23092/tax-form-extraction/client"
	"github.com/Aashish23092/tax-form-extraction/config"
	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/extractor"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/validation"
)

// BuildEngines creates the configured engines in order. Unknown names are
// reported as unavailable rather than failing startup.
func BuildEngines(cfg config.OCRConfig, logger *slog.Logger) ([]Engine, []dto.EngineStatus) {
	var engines []Engine
	var unknown []dto.EngineStatus
	for _, name := range cfg.Engines {
		switch name {
		case "tesseract":
			engines = append(engines, client.NewTesseractClient(cfg.TessdataPrefix, cfg.Languages, logger))
		case "paddleocr", "paddle":
			engines = append(engines, client.NewPaddleClient(cfg.PaddleURL, cfg.EngineTimeout, logger))
		case "azure":
			engines = append(engines, client.NewAzureClient(cfg.AzureEndpoint, cfg.AzureKey, logger))
		case "barcode", "qr":
			engines = append(engines, client.NewBarcodeClient())
		default:
			logger.Warn("unknown ocr engine in configuration", "engine", name)
			unknown = append(unknown, dto.EngineStatus{Name: name, Error: "unknown engine"})
		}
	}
	return engines, unknown
}

// NewFromConfig loads the pattern library, probes the configured engines
// once and wires the orchestrator.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*TaxService, []dto.EngineStatus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := forms.DefaultRegistry(logger)
	if cfg.Extraction.PatternsFile != "" {
		r, err := forms.LoadOverrides(cfg.Extraction.PatternsFile, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("load pattern overrides: %w", err)
		}
		registry = r
	}

	engines, unknown := BuildEngines(cfg.OCR, logger)
	active, statuses := ProbeEngines(ctx, engines, logger)
	statuses = append(statuses, unknown...)

	var extOpts []extractor.Option
	if cfg.Extraction.ContextWindow > 0 {
		extOpts = append(extOpts, extractor.WithWindow(cfg.Extraction.ContextWindow))
	}
	if len(cfg.Extraction.Denylist) > 0 {
		extOpts = append(extOpts, extractor.WithDenylist(cfg.Extraction.Denylist))
	}

	svc := NewTaxService(
		registry,
		NewOCRReconciler(active, cfg.OCR.EngineTimeout, cfg.OCR.Workers, logger),
		NewPDFProcessor(logger),
		WithLogger(logger),
		WithConfidenceThreshold(cfg.OCR.ConfidenceThreshold),
		WithExtractor(extractor.New(logger, extOpts...)),
		WithValidator(validation.New(logger, validation.WithMagnitudeCap(cfg.Validation.MagnitudeCap))),
	)
	return svc, statuses, nil
}
