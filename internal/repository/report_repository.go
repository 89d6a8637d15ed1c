package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
	appErrors "github.com/noah-isme/vet-benchmarks-api/pkg/errors"
)

// ErrReportNotFound is returned for unknown or expired report jobs.
var ErrReportNotFound = errors.New("report job not found")

const reportKeyPrefix = "report:"

// ReportRepository keeps report job metadata in the document store. Jobs
// expire after the configured retention.
type ReportRepository struct {
	store     documentStore
	retention time.Duration
	now       func() time.Time
}

// NewReportRepository constructs the repository.
func NewReportRepository(store documentStore, retention time.Duration) *ReportRepository {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ReportRepository{store: store, retention: retention, now: time.Now}
}

func reportKey(id string) string {
	return reportKeyPrefix + id
}

// Create stores a new report job with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.now().UTC()
	}
	if err := r.store.Set(ctx, reportKey(job.ID), job, r.retention); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID returns a job by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.store.Get(ctx, reportKey(id), &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report job: %w", err)
	}
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ResultPath   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided changes to a stored job. An empty
// ErrorMessage clears the previous error.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ErrorMessage != nil {
		if *params.ErrorMessage == "" {
			job.ErrorMessage = nil
		} else {
			job.ErrorMessage = params.ErrorMessage
		}
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	if err := r.store.Set(ctx, reportKey(id), job, r.retention); err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return nil
}

// ListQueued fetches queued jobs oldest first (used for cold start recovery).
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	jobs, err := r.list(ctx, func(job models.ReportJob) bool {
		return job.Status == models.ReportStatusQueued
	})
	if err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs prior to cutoff for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := r.list(ctx, func(job models.ReportJob) bool {
		return job.Status == models.ReportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
	})
	if err != nil {
		return nil, fmt.Errorf("list finished report jobs: %w", err)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].FinishedAt.Before(*jobs[j].FinishedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *ReportRepository) list(ctx context.Context, keep func(models.ReportJob) bool) ([]models.ReportJob, error) {
	keys, err := r.store.Keys(ctx, reportKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ReportJob, 0, len(keys))
	for _, key := range keys {
		var job models.ReportJob
		if err := r.store.Get(ctx, key, &job); err != nil {
			// expired between SCAN and GET
			if errors.Is(err, appErrors.ErrCacheMiss) {
				continue
			}
			return nil, err
		}
		if keep(job) {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Delete removes a job record.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteByPattern(ctx, reportKey(id)); err != nil {
		return fmt.Errorf("delete report job: %w", err)
	}
	return nil
}
