package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

// openUploadedFile returns the multipart "file" part, capping the request
// body slightly above the allowed file size.
func openUploadedFile(c *gin.Context, maxBytes int64) (multipart.File, string, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, "", appErrors.ErrPayloadTooLarge
		}
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := header.Open()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return src, header.Filename, nil
}

func formatQuery(c *gin.Context) models.ReportFormat {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", string(models.ReportFormatCSV)))))
	return format
}

func streamFile(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, size, contentType, r, nil)
}
