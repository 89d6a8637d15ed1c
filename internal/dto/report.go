package dto

import "github.com/noah-isme/vet-benchmarks-api/internal/models"

// ReportRequest captures POST /uploads/:id/reports payload.
type ReportRequest struct {
	Type       models.ReportType   `json:"type" validate:"omitempty,oneof=benchmark_packet summary"`
	Format     models.ReportFormat `json:"format" validate:"omitempty,oneof=xlsx pdf csv"`
	ProgramCoC string              `json:"program_coc" validate:"omitempty,max=64"`
	LocalCoC   string              `json:"local_coc" validate:"omitempty,max=64"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Format    models.ReportFormat `json:"format"`
	UploadID  string              `json:"upload_id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
