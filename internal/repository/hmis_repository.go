package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

const hmisColumns = `client_id, enrollment_id, project_type, project_start_date, project_exit_date,
housing_move_in_date, veteran_status, funding_source, destination_category, is_last_enrollment,
project_name, episode_start_date, residence_prior, length_of_stay_prior, times_homeless_3y,
months_homeless_3y, chronic_pit, ph_offer, ph_offer_date, ph_offer_decision, program_coc, local_coc`

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// HMISRepository reads enrollment extracts from the HMIS warehouse. It never
// writes.
type HMISRepository struct {
	db   *sqlx.DB
	view string
}

// NewHMISRepository constructs the repository over the given view or table.
func NewHMISRepository(db *sqlx.DB, view string) (*HMISRepository, error) {
	if !identifierPattern.MatchString(view) {
		return nil, fmt.Errorf("invalid enrollment view name %q", view)
	}
	return &HMISRepository{db: db, view: view}, nil
}

// ListEnrollments returns the enrollment rows matching filter ordered by
// client and start date.
func (r *HMISRepository) ListEnrollments(ctx context.Context, filter models.HMISFilter) ([]models.HMISEnrollment, error) {
	var conditions []string
	var args []interface{}

	if filter.ProgramCoC != "" {
		conditions = append(conditions, fmt.Sprintf("program_coc = $%d", len(args)+1))
		args = append(args, filter.ProgramCoC)
	}
	if filter.LocalCoC != "" {
		conditions = append(conditions, fmt.Sprintf("local_coc = $%d", len(args)+1))
		args = append(args, filter.LocalCoC)
	}
	if filter.ActiveSince != nil {
		conditions = append(conditions, fmt.Sprintf("(project_exit_date IS NULL OR project_exit_date >= $%d)", len(args)+1))
		args = append(args, *filter.ActiveSince)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY client_id, project_start_date", hmisColumns, r.view, clause)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	var rows []models.HMISEnrollment
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list hmis enrollments: %w", err)
	}
	return rows, nil
}

// Ping verifies the warehouse connection.
func (r *HMISRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
