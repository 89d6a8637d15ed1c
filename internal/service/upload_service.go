package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/dto"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	"github.com/noah-isme/vet-benchmarks-api/internal/repository"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
	"github.com/noah-isme/vet-benchmarks-api/pkg/tabular"
)

type uploadStore interface {
	Save(ctx context.Context, snapshot *models.UploadSnapshot, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.UploadSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type enrollmentSource interface {
	ListEnrollments(ctx context.Context, filter models.HMISFilter) ([]models.HMISEnrollment, error)
}

// UploadServiceConfig bounds accepted files and the snapshot lifetime.
type UploadServiceConfig struct {
	MaxFileSizeBytes int64
	TTL              time.Duration
	AllowedExts      []string
	HMISEnabled      bool
	HMISMaxRows      int
	HMISQueryTimeout time.Duration
}

// UploadService turns uploaded extracts into cached snapshots.
type UploadService struct {
	store     uploadStore
	hmis      enrollmentSource
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       UploadServiceConfig
	now       func() time.Time
}

// NewUploadService constructs the service. hmis may be nil when the warehouse
// source is disabled.
func NewUploadService(store uploadStore, hmis enrollmentSource, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg UploadServiceConfig) *UploadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 25 * 1024 * 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if len(cfg.AllowedExts) == 0 {
		cfg.AllowedExts = []string{".csv", ".xlsx"}
	}
	if cfg.HMISQueryTimeout <= 0 {
		cfg.HMISQueryTimeout = 30 * time.Second
	}
	return &UploadService{
		store:     store,
		hmis:      hmis,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// MaxFileSize returns the upload size limit in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.cfg.MaxFileSizeBytes
}

// Parse reads an extract file into a raw table and verifies it carries the
// required columns.
func (s *UploadService) Parse(filename string, r io.Reader) (*benchmark.Table, error) {
	if !s.allowed(filename) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported file type %q, expected one of %s", filepath.Ext(filename), strings.Join(s.cfg.AllowedExts, ", ")))
	}
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSizeBytes))
	}
	sheet, err := tabular.ReadBytes(data, filename)
	if err != nil {
		switch {
		case errors.Is(err, tabular.ErrUnsupportedFormat):
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "unsupported file type")
		case errors.Is(err, tabular.ErrEmpty):
			return nil, appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "file has no header row")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file could not be parsed")
		}
	}
	table := benchmark.NewTable(sheet.Columns, sheet.Rows)
	if err := checkRequiredColumns(table); err != nil {
		return nil, err
	}
	return table, nil
}

// Create parses an uploaded file and stores it as a snapshot.
func (s *UploadService) Create(ctx context.Context, filename string, r io.Reader) (*models.Upload, error) {
	table, err := s.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return s.storeSnapshot(ctx, filepath.Base(filename), models.UploadSourceFile, table)
}

// Import loads enrollments from the HMIS warehouse as a new snapshot.
func (s *UploadService) Import(ctx context.Context, req dto.HMISImportRequest) (*models.Upload, error) {
	if !s.cfg.HMISEnabled || s.hmis == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "HMIS import is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import request")
	}
	filter := models.HMISFilter{ProgramCoC: req.ProgramCoC, LocalCoC: req.LocalCoC, Limit: req.Limit}
	if s.cfg.HMISMaxRows > 0 && (filter.Limit <= 0 || filter.Limit > s.cfg.HMISMaxRows) {
		filter.Limit = s.cfg.HMISMaxRows
	}
	if req.ActiveSince != "" {
		since, err := time.Parse(benchmark.DateLayout, req.ActiveSince)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "active_since must be YYYY-MM-DD")
		}
		filter.ActiveSince = &since
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.HMISQueryTimeout)
	defer cancel()
	start := time.Now()
	rows, err := s.hmis.ListEnrollments(queryCtx, filter)
	s.metrics.ObserveDBQuery("hmis_enrollments", time.Since(start))
	if err != nil {
		s.logger.Error("hmis import failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to load enrollments from HMIS")
	}

	values := make([][]string, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Values())
	}
	table := benchmark.NewTable(models.HMISColumns, values)
	name := "hmis"
	if req.ProgramCoC != "" {
		name += "_" + req.ProgramCoC
	}
	return s.storeSnapshot(ctx, name, models.UploadSourceHMIS, table)
}

// Get returns upload metadata.
func (s *UploadService) Get(ctx context.Context, id string) (*models.Upload, error) {
	snapshot, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &snapshot.Upload, nil
}

// Load returns the full snapshot of an upload.
func (s *UploadService) Load(ctx context.Context, id string) (*models.UploadSnapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "upload not found")
	}
	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUploadNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "upload not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to load upload")
	}
	return snapshot, nil
}

// Delete removes an upload together with every cached result derived from it.
func (s *UploadService) Delete(ctx context.Context, id string) error {
	if _, err := s.Load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete upload")
	}
	s.logger.Info("upload deleted", zap.String("upload_id", id))
	return nil
}

func (s *UploadService) storeSnapshot(ctx context.Context, filename string, source models.UploadSource, table *benchmark.Table) (*models.Upload, error) {
	ds, err := benchmark.Normalize(table)
	if err != nil {
		return nil, mapEngineError(err)
	}
	now := s.now().UTC()
	upload := models.Upload{
		ID:                uuid.NewString(),
		Filename:          filename,
		Source:            source,
		RowCount:          table.Len(),
		Columns:           table.Columns,
		ProgramCoCOptions: benchmark.CoCOptions(table, models.ColProgramCoC),
		LocalCoCOptions:   benchmark.CoCOptions(table, models.ColLocalCoC),
		MissingColumns:    ds.Missing,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.cfg.TTL),
	}
	snapshot := &models.UploadSnapshot{Upload: upload, Columns: table.Columns, Rows: table.Rows}
	if err := s.store.Save(ctx, snapshot, s.cfg.TTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "failed to store upload")
	}
	s.metrics.RecordUpload(source, upload.RowCount)
	s.logger.Info("upload stored",
		zap.String("upload_id", upload.ID),
		zap.String("source", string(source)),
		zap.Int("rows", upload.RowCount),
		zap.Strings("missing_optional", ds.Missing),
	)
	return &upload, nil
}

func (s *UploadService) allowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.cfg.AllowedExts {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func checkRequiredColumns(table *benchmark.Table) error {
	for _, col := range benchmark.RequiredColumns {
		if !table.Has(col) {
			return mapEngineError(&benchmark.MissingColumnError{Column: col})
		}
	}
	return nil
}

// mapEngineError converts engine errors into API errors.
func mapEngineError(err error) error {
	var missing *benchmark.MissingColumnError
	if errors.As(err, &missing) {
		return appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, fmt.Sprintf("missing required column: %s", missing.Column))
	}
	if errors.Is(err, benchmark.ErrNoRecords) {
		return appErrors.Wrap(err, appErrors.ErrUnprocessable.Code, appErrors.ErrUnprocessable.Status, "dataset is empty")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "benchmark computation failed")
}
