package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
	"github.com/noah-isme/vet-benchmarks-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *benchmarkHarness) {
	t.Helper()
	h := newBenchmarkHarness(t, 0)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour).WithClock(func() time.Time { return fixtureToday })
	svc := NewExportService(h.service, store, signer, ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, zap.NewNop())
	svc.now = func() time.Time { return fixtureToday }
	return svc, h
}

func readStored(t *testing.T, svc *ExportService, relPath string) []byte {
	t.Helper()
	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	return data
}

func TestExportServiceExportMetricCSV(t *testing.T) {
	svc, h := newExportServiceForTest(t)

	file, err := svc.ExportMetric(context.Background(), h.uploadID, "vets_served", models.CoCFilter{}, models.ReportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "veterans_served.csv", file.Filename)

	records, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, fixtureColumns, records[0])
	assert.Len(t, records, 4)
}

func TestExportServiceExportSummaryXLSX(t *testing.T) {
	svc, h := newExportServiceForTest(t)

	file, err := svc.ExportSummary(context.Background(), h.uploadID, models.CoCFilter{}, models.ReportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, benchmark.SummaryFilename()+".xlsx", file.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{benchmark.ColMetricID, benchmark.ColMetricName, benchmark.ColMetricValue, benchmark.ColPeriodStart, benchmark.ColPeriodEnd}, rows[0])
	assert.Len(t, rows, len(benchmark.MetricIDs())+1)
}

func TestExportServiceRejectsUnknownFormatAndMetric(t *testing.T) {
	svc, h := newExportServiceForTest(t)

	_, err := svc.ExportSummary(context.Background(), h.uploadID, models.CoCFilter{}, "docx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportMetric(context.Background(), h.uploadID, "Z9", models.CoCFilter{}, models.ReportFormatCSV)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestExportServiceGeneratePacket(t *testing.T) {
	svc, h := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "6f1c1d36-9d2b-4df5-9a4f-0d0a4b0c1e11",
		Type:   models.ReportTypePacket,
		Params: models.ReportJobParams{UploadID: h.uploadID, Filter: models.CoCFilter{ProgramCoC: "CA-600"}, Format: models.ReportFormatXLSX},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "benchmark_packet_CA-600_20240331_090000_6f1c1d36.xlsx", result.RelativePath)
	assert.Equal(t, "/api/v1/export/"+result.Token, result.URL)
	assert.Equal(t, fixtureToday.Add(time.Hour), result.ExpiresAt)

	book, err := excelize.OpenReader(bytes.NewReader(readStored(t, svc, result.RelativePath)))
	require.NoError(t, err)
	defer book.Close()
	sheets := book.GetSheetList()
	require.Len(t, sheets, len(benchmark.MetricIDs())+1)
	assert.Equal(t, "Summary", sheets[0])
	assert.Equal(t, benchmark.MetricServed, sheets[1])

	claims, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, job.ID, claims.JobID)
	assert.Equal(t, result.RelativePath, claims.Path)
}

func TestExportServiceGenerateSummaryPDF(t *testing.T) {
	svc, h := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeSummary,
		Params: models.ReportJobParams{UploadID: h.uploadID, Format: models.ReportFormatPDF},
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	data := readStored(t, svc, result.RelativePath)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	require.NoError(t, svc.Delete(result.RelativePath))
	_, err = svc.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestExportServiceGeneratePacketRejectsCSV(t *testing.T) {
	svc, h := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypePacket,
		Params: models.ReportJobParams{UploadID: h.uploadID, Format: models.ReportFormatCSV},
	}

	_, err := svc.Generate(context.Background(), job)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCleanup(t *testing.T) {
	svc, h := newExportServiceForTest(t)
	job := &models.ReportJob{
		ID:     "job-4",
		Type:   models.ReportTypeSummary,
		Params: models.ReportJobParams{UploadID: h.uploadID, Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	deleted, err := svc.Cleanup(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	deleted, err = svc.Cleanup(-time.Nanosecond)
	require.NoError(t, err)
	assert.Empty(t, deleted, "non-positive ttl falls back to the configured retention")

	time.Sleep(5 * time.Millisecond)
	deleted, err = svc.storage.CleanupOlderThan(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{result.RelativePath}, deleted)
}
