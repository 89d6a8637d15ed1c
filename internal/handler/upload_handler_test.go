package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/dto"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

type fakeUploadSrv struct {
	upload     *models.Upload
	err        error
	maxSize    int64
	gotName    string
	gotBody    string
	gotImport  dto.HMISImportRequest
	deletedIDs []string
}

func (f *fakeUploadSrv) Create(_ context.Context, filename string, r io.Reader) (*models.Upload, error) {
	f.gotName = filename
	body, _ := io.ReadAll(r)
	f.gotBody = string(body)
	return f.upload, f.err
}

func (f *fakeUploadSrv) Import(_ context.Context, req dto.HMISImportRequest) (*models.Upload, error) {
	f.gotImport = req
	return f.upload, f.err
}

func (f *fakeUploadSrv) Get(context.Context, string) (*models.Upload, error) {
	return f.upload, f.err
}

func (f *fakeUploadSrv) Delete(_ context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return f.err
}

func (f *fakeUploadSrv) MaxFileSize() int64 {
	return f.maxSize
}

func multipartRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeUploadSrv{upload: &models.Upload{ID: "up-1", Filename: "extract.csv", RowCount: 2}, maxSize: 1 << 20}
	handler := NewUploadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartRequest(t, "/uploads", "extract.csv", []byte("Client ID\n1\n"))

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "extract.csv", srv.gotName)
	assert.Equal(t, "Client ID\n1\n", srv.gotBody)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "up-1", data["id"])
}

func TestUploadHandlerCreateRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUploadHandler(&fakeUploadSrv{maxSize: 1 << 20})

	c, w := newGinContext(http.MethodPost, "/uploads", nil)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadHandlerCreateRejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUploadHandler(&fakeUploadSrv{maxSize: 16})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartRequest(t, "/uploads", "extract.csv", bytes.Repeat([]byte("x"), 2*multipartOverhead))

	handler.Create(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadHandlerCreatePropagatesServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeUploadSrv{maxSize: 1 << 20, err: appErrors.Clone(appErrors.ErrUnprocessable, "missing required column: Project Type")}
	handler := NewUploadHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartRequest(t, "/uploads", "extract.csv", []byte("Client ID\n1\n"))
	handler.Create(c)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decodeEnvelope(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "missing required column: Project Type", errBody["message"])
}

func TestUploadHandlerImport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeUploadSrv{upload: &models.Upload{ID: "up-2", Source: models.UploadSourceHMIS}}
	handler := NewUploadHandler(srv)

	c, w := newGinContext(http.MethodPost, "/uploads/import", []byte(`{"program_coc":"CA-500","limit":10}`))
	handler.Import(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, dto.HMISImportRequest{ProgramCoC: "CA-500", Limit: 10}, srv.gotImport)
}

func TestUploadHandlerGetAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeUploadSrv{upload: &models.Upload{ID: "up-3"}}
	handler := NewUploadHandler(srv)

	c, w := newGinContext(http.MethodGet, "/uploads/up-3", nil)
	c.Params = gin.Params{{Key: "id", Value: "up-3"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, _ = newGinContext(http.MethodDelete, "/uploads/up-3", nil)
	c.Params = gin.Params{{Key: "id", Value: "up-3"}}
	handler.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{"up-3"}, srv.deletedIDs)
}

func TestUploadHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewUploadHandler(&fakeUploadSrv{err: appErrors.Clone(appErrors.ErrNotFound, "upload not found")})

	c, w := newGinContext(http.MethodGet, "/uploads/missing", nil)
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
