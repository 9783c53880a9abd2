package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/tax-form-extraction/dto"
	"github.com/Aashish23092/tax-form-extraction/forms"
	"github.com/Aashish23092/tax-form-extraction/service"
)

const w2Text = `Form W-2 Wage and Tax Statement 2023
b Employer identification number (EIN) 12-3456789
1 Wages, tips, other compensation 2 Federal income tax withheld
85,000.00 12,750.00`

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewTaxService(forms.DefaultRegistry(nil), service.NewOCRReconciler(nil, time.Second, 1, nil), nil)
	engines := []dto.EngineStatus{{Name: "tesseract", Available: true}, {Name: "azure", Error: "azure endpoint not configured"}}
	return NewRouter(NewTaxHandler(svc, engines, 1<<20, nil), 0)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, router *gin.Engine, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestParseTextW2(t *testing.T) {
	w := postJSON(t, setupRouter(), "/api/v1/tax/w2/parse-text", dto.ParseTextRequest{Text: w2Text})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env struct {
		Success bool               `json:"success"`
		Data    map[string]any     `json:"data"`
		Scores  map[string]float64 `json:"confidence_scores"`
		Meta    struct {
			DocumentType string `json:"document_type"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, 85000.0, env.Data["wages_tips"])
	assert.Equal(t, 12750.0, env.Data["federal_tax_withheld"])
	assert.Equal(t, "12-3456789", env.Data["employer_ein"])
	assert.Equal(t, "w2", env.Meta.DocumentType)
}

func TestParseTextWrongDocument(t *testing.T) {
	w := postJSON(t, setupRouter(), "/api/v1/tax/schedule_c/parse-text", dto.ParseTextRequest{Text: w2Text})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var env dto.ExtractionEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "does not appear to be")
}

func TestParseTextBadRequests(t *testing.T) {
	router := setupRouter()

	w := postJSON(t, router, "/api/v1/tax/form_990/parse-text", dto.ParseTextRequest{Text: w2Text})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNSUPPORTED_DOCUMENT_TYPE")

	w = postJSON(t, router, "/api/v1/tax/w2/parse-text", map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tax/w2/parse-text", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTextAuto(t *testing.T) {
	w := postJSON(t, setupRouter(), "/api/v1/tax/auto/parse-text", dto.ParseTextRequest{Text: w2Text})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"document_type":"w2"`)
}

func TestParseFileValidation(t *testing.T) {
	router := setupRouter()

	w := upload(t, router, "/api/v1/tax/w2/parse", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, router, "/api/v1/tax/w2/parse", "w2.txt", []byte("text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrInvalidFileType.Error())

	w = upload(t, router, "/api/v1/tax/w2/parse", "w2.png", bytes.Repeat([]byte{1}, 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestParseFileImageWithoutEngines(t *testing.T) {
	w := upload(t, setupRouter(), "/api/v1/tax/w2/parse", "w2.png", []byte("not really a png"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"error_kind":"acquisition"`)
}

func TestListFormsAndEngines(t *testing.T) {
	router := setupRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tax/forms", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var forms struct {
		Forms []formInfo `json:"forms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	require.Len(t, forms.Forms, len(dto.AllDocumentTypes))
	assert.Equal(t, dto.DocTypeScheduleC, forms.Forms[0].Type)
	assert.Equal(t, "net_profit", forms.Forms[0].Fields[0].Name)
	assert.True(t, forms.Forms[0].Fields[0].Required)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/tax/engines", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"tesseract"`)
	assert.Contains(t, w.Body.String(), "azure endpoint not configured")
}
