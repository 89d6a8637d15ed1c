package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vet-benchmarks-api/internal/dto"
	"github.com/noah-isme/vet-benchmarks-api/internal/middleware"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	"github.com/noah-isme/vet-benchmarks-api/internal/service"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
	"github.com/noah-isme/vet-benchmarks-api/pkg/response"
)

type benchmarkService interface {
	Compute(ctx context.Context, uploadID string, query dto.MetricsQuery) (*dto.BenchmarkResponse, bool, error)
	Evaluate(ctx context.Context, filename string, r io.Reader, query dto.MetricsQuery) (*dto.BenchmarkResponse, error)
	MetricRows(ctx context.Context, uploadID, metricID string, query dto.RowsQuery) (*dto.MetricRowsResponse, *models.Pagination, error)
}

type exportService interface {
	ExportMetric(ctx context.Context, uploadID, metricID string, filter models.CoCFilter, format models.ReportFormat) (*service.ExportFile, error)
	ExportSummary(ctx context.Context, uploadID string, filter models.CoCFilter, format models.ReportFormat) (*service.ExportFile, error)
}

// BenchmarkHandler serves computed metrics and their exports.
type BenchmarkHandler struct {
	benchmarks  benchmarkService
	exports     exportService
	maxFileSize int64
}

// NewBenchmarkHandler constructs the handler.
func NewBenchmarkHandler(benchmarks benchmarkService, exports exportService, maxFileSize int64) *BenchmarkHandler {
	return &BenchmarkHandler{benchmarks: benchmarks, exports: exports, maxFileSize: maxFileSize}
}

// Metrics godoc
// @Summary Compute benchmark metrics for an upload
// @Tags Metrics
// @Produce json
// @Param id path string true "Upload ID"
// @Param program_coc query string false "Program Setup CoC"
// @Param local_coc query string false "Local CoC Code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /uploads/{id}/metrics [get]
func (h *BenchmarkHandler) Metrics(c *gin.Context) {
	var query dto.MetricsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	result, cacheHit, err := h.benchmarks.Compute(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetResultMeta(c, cacheHit, result.ComputedAt, result.PeriodStart, result.PeriodEnd)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// MetricRows godoc
// @Summary Page through the rows behind a metric
// @Tags Metrics
// @Produce json
// @Param id path string true "Upload ID"
// @Param metricId path string true "Metric ID (e.g. A1, Vets_Served)"
// @Param program_coc query string false "Program Setup CoC"
// @Param local_coc query string false "Local CoC Code"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /uploads/{id}/metrics/{metricId}/rows [get]
func (h *BenchmarkHandler) MetricRows(c *gin.Context) {
	var query dto.RowsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	rows, pagination, err := h.benchmarks.MetricRows(c.Request.Context(), c.Param("id"), c.Param("metricId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Evaluate godoc
// @Summary Compute metrics for a file without storing it
// @Tags Metrics
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX extract"
// @Param program_coc query string false "Program Setup CoC"
// @Param local_coc query string false "Local CoC Code"
// @Success 200 {object} response.Envelope
// @Router /metrics [post]
func (h *BenchmarkHandler) Evaluate(c *gin.Context) {
	var query dto.MetricsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	src, filename, err := openUploadedFile(c, h.maxFileSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer src.Close()

	result, err := h.benchmarks.Evaluate(c.Request.Context(), filename, src, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetResultMeta(c, false, result.ComputedAt, result.PeriodStart, result.PeriodEnd)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ExportMetric godoc
// @Summary Download the rows behind a metric
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Upload ID"
// @Param metricId path string true "Metric ID"
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param program_coc query string false "Program Setup CoC"
// @Param local_coc query string false "Local CoC Code"
// @Success 200 {file} file
// @Router /uploads/{id}/metrics/{metricId}/export [get]
func (h *BenchmarkHandler) ExportMetric(c *gin.Context) {
	var query dto.MetricsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	file, err := h.exports.ExportMetric(c.Request.Context(), c.Param("id"), c.Param("metricId"), query.Filter(), formatQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamFile(c, file.Filename, file.ContentType, int64(len(file.Data)), bytes.NewReader(file.Data))
}

// ExportSummary godoc
// @Summary Download the metrics summary table
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Upload ID"
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Param program_coc query string false "Program Setup CoC"
// @Param local_coc query string false "Local CoC Code"
// @Success 200 {file} file
// @Router /uploads/{id}/summary/export [get]
func (h *BenchmarkHandler) ExportSummary(c *gin.Context) {
	var query dto.MetricsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	file, err := h.exports.ExportSummary(c.Request.Context(), c.Param("id"), query.Filter(), formatQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	streamFile(c, file.Filename, file.ContentType, int64(len(file.Data)), bytes.NewReader(file.Data))
}
