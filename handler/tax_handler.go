package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/service"
)

type TaxHandler struct {
	taxService  *service.TaxService
	engines     []dto.EngineStatus
	maxFileSize int64
	logger      *slog.Logger
}

func NewTaxHandler(taxService *service.TaxService, engines []dto.EngineStatus, maxFileSize int64, logger *slog.Logger) *TaxHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxHandler{
		taxService:  taxService,
		engines:     engines,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

type fieldInfo struct {
	Name        string        `json:"name"`
	Type        dto.ValueType `json:"type"`
	Required    bool          `json:"required"`
	Description string        `json:"description,omitempty"`
}

type formInfo struct {
	Type   dto.DocumentType `json:"type"`
	Name   string           `json:"name"`
	Fields []fieldInfo      `json:"fields"`
}

// ListEngines handles GET /tax/engines
func (h *TaxHandler) ListEngines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"engines": h.engines})
}

// ListForms handles GET /tax/forms
func (h *TaxHandler) ListForms(c *gin.Context) {
	var out []formInfo
	for _, form := range h.taxService.Registry().Forms() {
		info := formInfo{Type: form.Type(), Name: form.Type().DisplayName()}
		for _, spec := range form.FieldSpecs() {
			info.Fields = append(info.Fields, fieldInfo{
				Name:        spec.Name,
				Type:        spec.Type,
				Required:    spec.Required,
				Description: spec.Description,
			})
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"forms": out})
}

// ParseFile handles POST /tax/:type/parse with a PDF or image upload.
func (h *TaxHandler) ParseFile(c *gin.Context) {
	docType := c.Param("type")
	if !h.checkType(c, docType) {
		return
	}

	var req dto.ParseFileRequest
	if err := c.ShouldBind(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "A file is required", err)
		return
	}
	if err := req.Validate(h.maxFileSize); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dto.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.sendError(c, status, "INVALID_FILE", err.Error(), err)
		return
	}

	f, err := req.File.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_FILE", "Failed to open file", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_FILE", "Failed to read file", err)
		return
	}

	src := service.Source{Filename: req.File.Filename, Password: req.Password}
	if strings.EqualFold(filepath.Ext(req.File.Filename), ".pdf") {
		src.PDF = data
	} else {
		src.Images = [][]byte{data}
	}

	h.logger.Info("received tax document", "filename", req.File.Filename, "size", req.File.Size, "declared_type", docType)
	env := h.taxService.Process(c.Request.Context(), src, docType)
	c.JSON(statusFor(env), env)
}

// ParseText handles POST /tax/:type/parse-text with already extracted text.
func (h *TaxHandler) ParseText(c *gin.Context) {
	docType := c.Param("type")
	if !h.checkType(c, docType) {
		return
	}

	var req dto.ParseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with a text field", err)
		return
	}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), err)
		return
	}

	env := h.taxService.Process(c.Request.Context(), service.Source{Text: req.Text, Filename: req.Filename}, docType)
	c.JSON(statusFor(env), env)
}

func (h *TaxHandler) checkType(c *gin.Context, docType string) bool {
	if strings.EqualFold(docType, "auto") {
		return true
	}
	if _, err := dto.ParseDocumentType(docType); err != nil {
		h.sendError(c, http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE", err.Error(), err)
		return false
	}
	return true
}

// statusFor maps the envelope outcome to an HTTP status. Rejected
// documents are the caller's problem; system errors are ours.
func statusFor(env *dto.ExtractionEnvelope) int {
	if env.Success {
		return http.StatusOK
	}
	switch env.ErrorKind {
	case dto.KindAcquisition, dto.KindClassificationMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// sendError sends a structured error response
func (h *TaxHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	if err != nil {
		h.logger.Warn("request rejected", "code", code, "message", message, "err", err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
