package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

func newHMISRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var hmisRowColumns = []string{
	"client_id", "enrollment_id", "project_type", "project_start_date", "project_exit_date",
	"housing_move_in_date", "veteran_status", "funding_source", "destination_category", "is_last_enrollment",
	"project_name", "episode_start_date", "residence_prior", "length_of_stay_prior", "times_homeless_3y",
	"months_homeless_3y", "chronic_pit", "ph_offer", "ph_offer_date", "ph_offer_decision", "program_coc", "local_coc",
}

func TestHMISRepositoryListEnrollments(t *testing.T) {
	db, mock, cleanup := newHMISRepoMock(t)
	defer cleanup()
	repo, err := NewHMISRepository(db, "warehouse.veteran_enrollments_v")
	require.NoError(t, err)

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	since := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(hmisRowColumns).
		AddRow(int64(7), int64(70), "Street Outreach", start, nil,
			nil, "Yes", nil, nil, "No",
			"Outreach Team", nil, "Place not meant for habitation", nil, nil,
			nil, "Yes", nil, nil, nil, "CA-600", "LA")

	mock.ExpectQuery(`SELECT client_id, .* FROM warehouse\.veteran_enrollments_v WHERE program_coc = \$1 AND \(project_exit_date IS NULL OR project_exit_date >= \$2\) ORDER BY client_id, project_start_date LIMIT \$3`).
		WithArgs("CA-600", since, 500).
		WillReturnRows(rows)

	got, err := repo.ListEnrollments(context.Background(), models.HMISFilter{ProgramCoC: "CA-600", ActiveSince: &since, Limit: 500})
	require.NoError(t, err)
	require.Len(t, got, 1)

	values := got[0].Values()
	require.Len(t, values, len(models.HMISColumns))
	assert.Equal(t, "7", values[0])
	assert.Equal(t, "Street Outreach", values[2])
	assert.Equal(t, "2024-01-05", values[3])
	assert.Equal(t, "", values[4])
	assert.Equal(t, "CA-600", values[20])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHMISRepositoryNoFilter(t *testing.T) {
	db, mock, cleanup := newHMISRepoMock(t)
	defer cleanup()
	repo, err := NewHMISRepository(db, "veteran_enrollments_v")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM veteran_enrollments_v ORDER BY client_id, project_start_date")).
		WillReturnRows(sqlmock.NewRows(hmisRowColumns))

	got, err := repo.ListEnrollments(context.Background(), models.HMISFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHMISRepositoryRejectsUnsafeViewName(t *testing.T) {
	_, err := NewHMISRepository(nil, "enrollments; DROP TABLE clients")
	assert.Error(t, err)
}
