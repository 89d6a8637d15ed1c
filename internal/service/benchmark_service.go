package service

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vet-benchmarks-api/internal/benchmark"
	"github.com/noah-isme/vet-benchmarks-api/internal/dto"
	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	"github.com/noah-isme/vet-benchmarks-api/internal/repository"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

const (
	defaultRowsPageSize = 100
	maxRowsPageSize     = 1000
)

type snapshotSource interface {
	Load(ctx context.Context, id string) (*models.UploadSnapshot, error)
	Parse(filename string, r io.Reader) (*benchmark.Table, error)
}

// Computation is one engine run together with when it happened.
type Computation struct {
	UploadID   string            `json:"upload_id,omitempty"`
	Filter     models.CoCFilter  `json:"filter"`
	Result     *benchmark.Result `json:"result"`
	ComputedAt time.Time         `json:"computed_at"`
}

// BenchmarkService runs the metric engine over stored uploads and memoizes
// results under the upload they were computed from.
type BenchmarkService struct {
	uploads   snapshotSource
	engine    *benchmark.Engine
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

// BenchmarkServiceParams groups constructor dependencies.
type BenchmarkServiceParams struct {
	Uploads   snapshotSource
	Engine    *benchmark.Engine
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	CacheTTL  time.Duration
}

// NewBenchmarkService constructs the service.
func NewBenchmarkService(params BenchmarkServiceParams) *BenchmarkService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	engine := params.Engine
	if engine == nil {
		engine = benchmark.NewEngine(benchmark.DefaultConfig(), logger)
	}
	return &BenchmarkService{
		uploads:   params.Uploads,
		engine:    engine,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  params.CacheTTL,
		now:       time.Now,
	}
}

// Window returns the reporting window as of now.
func (s *BenchmarkService) Window() benchmark.Window {
	return s.engine.Window()
}

// Compute returns every metric for an upload, narrowed by the query's CoC
// filter, and whether the result came from cache.
func (s *BenchmarkService) Compute(ctx context.Context, uploadID string, query dto.MetricsQuery) (*dto.BenchmarkResponse, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics query")
	}
	comp, hit, err := s.Run(ctx, uploadID, query.Filter())
	if err != nil {
		return nil, false, err
	}
	return toBenchmarkResponse(comp), hit, nil
}

// Evaluate computes metrics straight from a file without storing it.
func (s *BenchmarkService) Evaluate(ctx context.Context, filename string, r io.Reader, query dto.MetricsQuery) (*dto.BenchmarkResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics query")
	}
	table, err := s.uploads.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	comp, err := s.compute(table, query.Filter())
	if err != nil {
		return nil, err
	}
	return toBenchmarkResponse(comp), nil
}

// MetricRows pages through the rows behind one metric.
func (s *BenchmarkService) MetricRows(ctx context.Context, uploadID, metricID string, query dto.RowsQuery) (*dto.MetricRowsResponse, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rows query")
	}
	comp, _, err := s.Run(ctx, uploadID, query.Filter())
	if err != nil {
		return nil, nil, err
	}
	metric, err := LookupMetric(comp.Result, metricID)
	if err != nil {
		return nil, nil, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultRowsPageSize
	}
	if size > maxRowsPageSize {
		size = maxRowsPageSize
	}
	total := metric.Rows.Len()
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	resp := &dto.MetricRowsResponse{
		Metric:  toMetricResponse(metric),
		Columns: metric.Rows.Columns,
		Rows:    metric.Rows.Rows[start:end],
	}
	return resp, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Run returns the computation for an upload and filter. The boolean reports
// whether it was served from cache.
func (s *BenchmarkService) Run(ctx context.Context, uploadID string, filter models.CoCFilter) (*Computation, bool, error) {
	snapshot, err := s.uploads.Load(ctx, uploadID)
	if err != nil {
		return nil, false, err
	}

	key := s.cacheKey(uploadID, filter)
	if s.cache.Enabled() {
		var cached Computation
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("benchmark cache lookup failed", zap.String("upload_id", uploadID), zap.Error(err))
		}
		if hit && cached.Result != nil {
			return &cached, true, nil
		}
	}

	comp, err := s.compute(benchmark.NewTable(snapshot.Columns, snapshot.Rows), filter)
	if err != nil {
		return nil, false, err
	}
	comp.UploadID = uploadID
	s.persist(ctx, key, comp, snapshot.Upload.ExpiresAt)
	return comp, false, nil
}

func (s *BenchmarkService) compute(table *benchmark.Table, filter models.CoCFilter) (*Computation, error) {
	start := time.Now()
	history, err := benchmark.Normalize(table)
	if err != nil {
		s.metrics.ObserveCompute(time.Since(start), err)
		return nil, mapEngineError(err)
	}
	records := history
	if !filter.IsEmpty() {
		records = benchmark.FilterByCoC(history, filter.ProgramCoC, filter.LocalCoC)
	}
	result, err := s.engine.Compute(benchmark.Input{Records: records, History: history})
	elapsed := time.Since(start)
	s.metrics.ObserveCompute(elapsed, err)
	if err != nil {
		s.logger.Error("benchmark computation failed", zap.Error(err))
		return nil, mapEngineError(err)
	}
	for _, m := range result.Metrics {
		s.metrics.SetMetricValue(m.ID, m.Value)
	}
	s.logger.Debug("benchmark computed",
		zap.Int("rows", records.Len()),
		zap.String("program_coc", filter.ProgramCoC),
		zap.String("local_coc", filter.LocalCoC),
		zap.Duration("elapsed", elapsed),
	)
	return &Computation{Filter: filter, Result: result, ComputedAt: s.now().UTC()}, nil
}

func (s *BenchmarkService) cacheKey(uploadID string, filter models.CoCFilter) string {
	reportDate := s.engine.Window().End.Format(benchmark.DateLayout)
	return repository.MetricsKey(uploadID, Digest(filter.ProgramCoC, filter.LocalCoC, reportDate))
}

// persist writes the computation with a TTL that never outlives the upload.
func (s *BenchmarkService) persist(ctx context.Context, key string, comp *Computation, expiresAt time.Time) {
	if !s.cache.Enabled() {
		return
	}
	ttl := s.cacheTTL
	if ttl <= 0 {
		ttl = s.cache.DefaultTTL()
	}
	if remaining := expiresAt.Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, comp, ttl); err != nil {
		s.logger.Warn("benchmark cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// LookupMetric resolves a metric by case-insensitive ID.
func LookupMetric(result *benchmark.Result, id string) (benchmark.Metric, error) {
	canonical, ok := benchmark.CanonicalMetricID(id)
	if !ok {
		return benchmark.Metric{}, appErrors.Clone(appErrors.ErrNotFound, "unknown metric "+id)
	}
	metric, ok := result.Metric(canonical)
	if !ok {
		return benchmark.Metric{}, appErrors.Clone(appErrors.ErrNotFound, "unknown metric "+id)
	}
	return metric, nil
}

func toBenchmarkResponse(comp *Computation) *dto.BenchmarkResponse {
	metrics := make([]dto.MetricResponse, 0, len(comp.Result.Metrics))
	for _, m := range comp.Result.Metrics {
		metrics = append(metrics, toMetricResponse(m))
	}
	ids := comp.Result.NewlyIdentified
	if ids == nil {
		ids = []int64{}
	}
	return &dto.BenchmarkResponse{
		UploadID:                 comp.UploadID,
		PeriodStart:              comp.Result.Window.Start.Format(benchmark.DateLayout),
		PeriodEnd:                comp.Result.Window.End.Format(benchmark.DateLayout),
		Filter:                   comp.Filter,
		Metrics:                  metrics,
		NewlyIdentifiedClientIDs: ids,
		ComputedAt:               comp.ComputedAt,
	}
}

func toMetricResponse(m benchmark.Metric) dto.MetricResponse {
	return dto.MetricResponse{
		ID:           m.ID,
		Name:         m.Name,
		Value:        benchmark.RoundValue(m.Value),
		DisplayValue: benchmark.FormatValue(m.Value),
		RowCount:     m.Rows.Len(),
		Filename:     m.Filename,
	}
}
