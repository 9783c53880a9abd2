package dto

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// ParseFileRequest is the multipart upload for a single tax document.
type ParseFileRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`
	Password string                `form:"password"`
}

// Validate performs basic validation on the request
func (r *ParseFileRequest) Validate(maxSize int64) error {
	if r.File == nil {
		return errors.New("file is required")
	}
	if r.File.Size == 0 {
		return ErrEmptyFile
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return ErrFileTooLarge
	}
	switch strings.ToLower(filepath.Ext(r.File.Filename)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return nil
	}
	return ErrInvalidFileType
}

// ParseTextRequest carries pre-extracted document text.
type ParseTextRequest struct {
	Text     string `json:"text" binding:"required"`
	Filename string `json:"filename"`
}

// Validate performs basic validation on the request
func (r *ParseTextRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrNoUsableText
	}
	return nil
}
