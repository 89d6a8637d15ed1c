package dto

import (
	"time"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// MetricsQuery captures the CoC narrowing accepted by metric endpoints.
type MetricsQuery struct {
	ProgramCoC string `form:"program_coc" json:"program_coc" validate:"omitempty,max=64"`
	LocalCoC   string `form:"local_coc" json:"local_coc" validate:"omitempty,max=64"`
}

// Filter converts the query into the model filter.
func (q MetricsQuery) Filter() models.CoCFilter {
	return models.CoCFilter{ProgramCoC: q.ProgramCoC, LocalCoC: q.LocalCoC}
}

// MetricResponse is one metric in API form.
type MetricResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Value        *float64 `json:"value"`
	DisplayValue string   `json:"display_value"`
	RowCount     int      `json:"row_count"`
	Filename     string   `json:"filename"`
}

// BenchmarkResponse is the full metric set for an upload.
type BenchmarkResponse struct {
	UploadID                 string           `json:"upload_id,omitempty"`
	PeriodStart              string           `json:"period_start"`
	PeriodEnd                string           `json:"period_end"`
	Filter                   models.CoCFilter `json:"filter"`
	Metrics                  []MetricResponse `json:"metrics"`
	NewlyIdentifiedClientIDs []int64          `json:"newly_identified_client_ids"`
	ComputedAt               time.Time        `json:"computed_at"`
}

// MetricRowsResponse pages through the rows behind one metric.
type MetricRowsResponse struct {
	Metric  MetricResponse `json:"metric"`
	Columns []string       `json:"columns"`
	Rows    [][]string     `json:"rows"`
}

// RowsQuery pages metric rows.
type RowsQuery struct {
	MetricsQuery
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=1000"`
}
