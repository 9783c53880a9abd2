package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient runs the local Tesseract engine through gosseract.
type TesseractClient struct {
	dataPath  string
	languages []string
	logger    *slog.Logger
}

func NewTesseractClient(dataPath string, languages []string, logger *slog.Logger) *TesseractClient {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: languages,
		logger:    logger,
	}
}

func (tc *TesseractClient) Name() string { return "tesseract" }

// Available checks that trained data exists for every configured language.
func (tc *TesseractClient) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tc.dataPath != "" {
		for _, lang := range tc.languages {
			if _, err := os.Stat(filepath.Join(tc.dataPath, lang+".traineddata")); err != nil {
				return fmt.Errorf("tesseract language %s: %w", lang, err)
			}
		}
	}
	tc.logger.Info("tesseract available", "version", gosseract.Version(), "languages", tc.languages)
	return nil
}

// ExtractImageText recognizes an image and returns its text with the mean
// word confidence scaled to [0,1]. The cgo call cannot be interrupted, so
// ctx is only checked before it starts.
func (tc *TesseractClient) ExtractImageText(ctx context.Context, img image.Image) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", 0, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(tc.languages...); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Get bounding boxes to calculate confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.logger.Debug("tesseract bounding boxes unavailable", "err", err)
		return text, 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	conf := 0.0
	if len(boxes) > 0 {
		conf = total / float64(len(boxes)) / 100
	}
	return text, conf, nil
}
