package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
	"github.com/noah-isme/vet-benchmarks-api/pkg/export"
	"github.com/noah-isme/vet-benchmarks-api/pkg/storage"
)

type computationRunner interface {
	Run(ctx context.Context, uploadID string, filter models.CoCFilter) (*Computation, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type xlsxRenderer interface {
	RenderSheets(sheets []export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderMany(sections []export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportFile is a rendered table ready to stream.
type ExportFile struct {
	Filename    string
	Format      models.ReportFormat
	ContentType string
	Data        []byte
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders metric tables and persists report packets.
type ExportService struct {
	benchmarks computationRunner
	storage    fileStorage
	csv        csvRenderer
	xlsx       xlsxRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService. storage and signer may be nil
// when background reports are disabled; direct exports still work.
func NewExportService(benchmarks computationRunner, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		benchmarks: benchmarks,
		storage:    store,
		csv:        export.NewCSVExporter(),
		xlsx:       export.NewXLSXExporter(),
		pdf:        export.NewPDFExporter(),
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// ExportMetric renders the rows behind one metric.
func (s *ExportService) ExportMetric(ctx context.Context, uploadID, metricID string, filter models.CoCFilter, format models.ReportFormat) (*ExportFile, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	comp, _, err := s.benchmarks.Run(ctx, uploadID, filter)
	if err != nil {
		return nil, err
	}
	metric, err := LookupMetric(comp.Result, metricID)
	if err != nil {
		return nil, err
	}
	data, err := s.render(format, []export.Dataset{metricDataset(metric)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", metric.Filename, format),
		Format:      format,
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// ExportSummary renders the metrics summary table.
func (s *ExportService) ExportSummary(ctx context.Context, uploadID string, filter models.CoCFilter, format models.ReportFormat) (*ExportFile, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	comp, _, err := s.benchmarks.Run(ctx, uploadID, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.render(format, []export.Dataset{summaryDataset(comp.Result)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", benchmark.SummaryFilename(), format),
		Format:      format,
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Generate renders a report job and stores it behind a signed download token.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report storage is not configured")
	}
	comp, _, err := s.benchmarks.Run(ctx, job.Params.UploadID, job.Params.Filter)
	if err != nil {
		return nil, err
	}

	var sections []export.Dataset
	switch job.Type {
	case models.ReportTypeSummary:
		sections = []export.Dataset{summaryDataset(comp.Result)}
	case models.ReportTypePacket:
		sections = packetDatasets(comp.Result)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %s", job.Type))
	}
	if job.Params.Format == models.ReportFormatCSV && len(sections) > 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv holds a single table, use xlsx or pdf for a packet")
	}

	payload, err := s.render(job.Params.Format, sections)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	s.logger.Info("report rendered",
		zap.String("job_id", job.ID),
		zap.String("upload_id", job.Params.UploadID),
		zap.String("path", relPath),
		zap.Int("sections", len(sections)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Claims, error) {
	if s.signer == nil {
		return storage.Claims{}, storage.ErrInvalidToken
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) render(format models.ReportFormat, sections []export.Dataset) ([]byte, error) {
	switch format {
	case models.ReportFormatCSV:
		return s.csv.Render(sections[0])
	case models.ReportFormatXLSX:
		return s.xlsx.RenderSheets(sections)
	case models.ReportFormatPDF:
		return s.pdf.RenderMany(sections)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	scope := "all"
	if !job.Params.Filter.IsEmpty() {
		scope = sanitizeFilename(strings.Trim(job.Params.Filter.ProgramCoC+"_"+job.Params.Filter.LocalCoC, "_"))
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", job.Type, scope, timestamp, shortID(job.ID), job.Params.Format)
}

func checkFormat(format models.ReportFormat) error {
	if !format.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	return nil
}

func metricDataset(m benchmark.Metric) export.Dataset {
	return export.Dataset{
		Name:    m.ID,
		Title:   fmt.Sprintf("%s: %s (%s)", m.ID, m.Name, displayOrNoData(m.Value)),
		Headers: m.Rows.Columns,
		Rows:    m.Rows.Rows,
	}
}

func summaryDataset(r *benchmark.Result) export.Dataset {
	table := benchmark.SummaryTable(r)
	return export.Dataset{
		Name: "Summary",
		Title: fmt.Sprintf("Veteran Benchmarks %s to %s",
			r.Window.Start.Format(benchmark.DateLayout), r.Window.End.Format(benchmark.DateLayout)),
		Headers: table.Columns,
		Rows:    table.Rows,
	}
}

// packetDatasets puts the summary first, then one table per metric.
func packetDatasets(r *benchmark.Result) []export.Dataset {
	sections := make([]export.Dataset, 0, len(r.Metrics)+1)
	sections = append(sections, summaryDataset(r))
	for _, m := range r.Metrics {
		sections = append(sections, metricDataset(m))
	}
	return sections
}

func displayOrNoData(v *float64) string {
	if v == nil {
		return "no data"
	}
	return benchmark.FormatValue(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
