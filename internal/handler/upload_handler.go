package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vet-benchmarks-api/internal/dto"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
	"github.com/noah-isme/vet-benchmarks-api/pkg/response"
)

type uploadService interface {
	Create(ctx context.Context, filename string, r io.Reader) (*models.Upload, error)
	Import(ctx context.Context, req dto.HMISImportRequest) (*models.Upload, error)
	Get(ctx context.Context, id string) (*models.Upload, error)
	Delete(ctx context.Context, id string) error
	MaxFileSize() int64
}

// UploadHandler manages dataset uploads.
type UploadHandler struct {
	service uploadService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(service uploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Create godoc
// @Summary Upload an enrollment extract
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX extract"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /uploads [post]
func (h *UploadHandler) Create(c *gin.Context) {
	src, filename, err := openUploadedFile(c, h.service.MaxFileSize())
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	upload, err := h.service.Create(c.Request.Context(), filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}

// Import godoc
// @Summary Import enrollments from the HMIS warehouse
// @Tags Uploads
// @Accept json
// @Produce json
// @Param payload body dto.HMISImportRequest false "Import filter"
// @Success 201 {object} response.Envelope
// @Router /uploads/import [post]
func (h *UploadHandler) Import(c *gin.Context) {
	var req dto.HMISImportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid import payload"))
			return
		}
	}
	upload, err := h.service.Import(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}

// Get godoc
// @Summary Get upload metadata
// @Tags Uploads
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} response.Envelope
// @Router /uploads/{id} [get]
func (h *UploadHandler) Get(c *gin.Context) {
	upload, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, upload, nil)
}

// Delete godoc
// @Summary Delete an upload and its cached results
// @Tags Uploads
// @Param id path string true "Upload ID"
// @Success 204
// @Router /uploads/{id} [delete]
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
