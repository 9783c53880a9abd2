package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
)

// azureConfidence is reported for every successful Azure read. The
// printed-text OCR API returns no scores of its own.
const azureConfidence = 0.85

// AzureClient runs printed text recognition on Azure Computer Vision.
type AzureClient struct {
	client   *computervision.BaseClient
	endpoint string
	logger   *slog.Logger
}

func NewAzureClient(endpoint, apiKey string, logger *slog.Logger) *AzureClient {
	if logger == nil {
		logger = slog.Default()
	}
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)

	return &AzureClient{
		client:   &client,
		endpoint: endpoint,
		logger:   logger,
	}
}

func (a *AzureClient) Name() string { return "azure" }

// Available requires an endpoint; credentials are only checked on use.
func (a *AzureClient) Available(ctx context.Context) error {
	if a.endpoint == "" {
		return errors.New("azure endpoint not configured")
	}
	return ctx.Err()
}

func (a *AzureClient) ExtractImageText(ctx context.Context, img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode image: %w", err)
	}

	result, err := a.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(&buf),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	text := ocrResultText(result)
	if text == "" {
		return "", 0, nil
	}
	a.logger.Debug("azure extracted text", "chars", len(text))
	return text, azureConfidence, nil
}

// ocrResultText flattens regions and lines into newline separated text.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n")
}
