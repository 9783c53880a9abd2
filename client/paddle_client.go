package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultPaddleURL is the PaddleHub serving endpoint used when none is configured.
const DefaultPaddleURL = "http://paddleocr:8866/predict/ocr_system"

// PaddleClient calls a PaddleOCR HTTP serving endpoint.
type PaddleClient struct {
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPaddleClient(apiURL string, timeout time.Duration, logger *slog.Logger) *PaddleClient {
	if apiURL == "" {
		apiURL = DefaultPaddleURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PaddleClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (p *PaddleClient) Name() string { return "paddleocr" }

// Available reports whether the endpoint answers at all. Any HTTP status
// counts; only transport failures make the engine unavailable.
func (p *PaddleClient) Available(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return fmt.Errorf("invalid PaddleOCR URL: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("PaddleOCR unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Msg     string `json:"msg"`
	Results [][]struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// ExtractImageText posts the image as base64 PNG and joins the recognized
// lines. Confidence is the mean line confidence.
func (p *PaddleClient) ExtractImageText(ctx context.Context, img image.Image) (string, float64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("failed to encode image: %w", err)
	}

	payload, err := json.Marshal(paddleRequest{Images: []string{base64.StdEncoding.EncodeToString(buf.Bytes())}})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build PaddleOCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}
	if len(result.Results) == 0 || len(result.Results[0]) == 0 {
		return "", 0, errors.New("PaddleOCR extracted no text from image")
	}

	lines := make([]string, 0, len(result.Results[0]))
	var total float64
	for _, line := range result.Results[0] {
		lines = append(lines, line.Text)
		total += line.Confidence
	}
	text := strings.Join(lines, "\n")

	p.logger.Debug("paddleocr extracted text", "chars", len(text), "lines", len(lines))
	return text, total / float64(len(lines)), nil
}
