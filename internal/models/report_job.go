package models

import "time"

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	// ReportTypePacket renders every metric table of one computation.
	ReportTypePacket ReportType = "benchmark_packet"
	// ReportTypeSummary renders only the metrics summary table.
	ReportTypeSummary ReportType = "summary"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatPDF  ReportFormat = "pdf"
)

// Valid reports whether the format is one the exporters can render.
func (f ReportFormat) Valid() bool {
	switch f {
	case ReportFormatCSV, ReportFormatXLSX, ReportFormatPDF:
		return true
	}
	return false
}

// ContentType returns the MIME type served for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is background job metadata. Jobs live alongside the upload
// they were requested for and expire with it.
type ReportJob struct {
	ID           string          `json:"id"`
	Type         ReportType      `json:"type"`
	Params       ReportJobParams `json:"params"`
	Status       ReportStatus    `json:"status"`
	Progress     int             `json:"progress"`
	ResultURL    *string         `json:"result_url,omitempty"`
	ResultPath   *string         `json:"result_path,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}

// ReportJobParams stores request-scoped options for a job.
type ReportJobParams struct {
	UploadID string       `json:"upload_id"`
	Filter   CoCFilter    `json:"filter"`
	Format   ReportFormat `json:"format"`
}
