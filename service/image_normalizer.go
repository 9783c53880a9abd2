package service

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageNormalizer prepares scanned pages for OCR.
type ImageNormalizer struct {
	// MaxDimension bounds the longer side; larger pages are scaled down.
	MaxDimension int
	Contrast     float64
	Sharpen      float64
}

func NewImageNormalizer() *ImageNormalizer {
	return &ImageNormalizer{
		MaxDimension: 3000,
		Contrast:     30,
		Sharpen:      1.5,
	}
}

// Decode reads a PNG or JPEG upload, applying EXIF orientation.
func (n *ImageNormalizer) Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Normalize converts to grayscale, raises contrast and sharpens text edges.
func (n *ImageNormalizer) Normalize(img image.Image) image.Image {
	b := img.Bounds()
	if n.MaxDimension > 0 && (b.Dx() > n.MaxDimension || b.Dy() > n.MaxDimension) {
		img = imaging.Fit(img, n.MaxDimension, n.MaxDimension, imaging.Lanczos)
	}

	out := imaging.Grayscale(img)
	if n.Contrast != 0 {
		out = imaging.AdjustContrast(out, n.Contrast)
	}
	if n.Sharpen > 0 {
		out = imaging.Sharpen(out, n.Sharpen)
	}
	return out
}

// NormalizeAll normalizes every page.
func (n *ImageNormalizer) NormalizeAll(pages []image.Image) []image.Image {
	out := make([]image.Image, len(pages))
	for i, p := range pages {
		out[i] = n.Normalize(p)
	}
	return out
}
