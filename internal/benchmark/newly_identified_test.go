package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

func TestResolveNewlyIdentified(t *testing.T) {
	w := testWindow()
	history := mustDataset(t,
		// single in-window enrollment, no history
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColProjectExit: "2024-02-20"},
		// prior allowed stint ended 30 days before
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeESEntryExit, models.ColProjectStart: "2023-10-01", models.ColProjectExit: "2024-01-02"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01"},
		// prior allowed stint lapsed long ago
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeESEntryExit, models.ColProjectStart: "2023-01-01", models.ColProjectExit: "2023-03-01"},
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01"},
		// only a disallowed prior, still open
		row{models.ColClientID: "4", models.ColProjectType: "Day Shelter", models.ColProjectStart: "2023-01-01"},
		row{models.ColClientID: "4", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01"},
		// lapsed allowed prior plus an open disallowed prior
		row{models.ColClientID: "5", models.ColProjectType: ProjectTypeESEntryExit, models.ColProjectStart: "2022-01-01", models.ColProjectExit: "2022-03-01"},
		row{models.ColClientID: "5", models.ColProjectType: "Day Shelter", models.ColProjectStart: "2023-01-01"},
		row{models.ColClientID: "5", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01"},
		// two in-window enrollments, earliest one wins for display
		row{models.ColClientID: "6", models.ColEnrollmentID: "62", models.ColProjectType: ProjectTypeTH, models.ColProjectStart: "2024-03-01"},
		row{models.ColClientID: "6", models.ColEnrollmentID: "61", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-15"},
	)
	rp := ReportingPeriodSubset(history, w)

	got := ResolveNewlyIdentified(rp, history, DefaultConfig())

	assert.Equal(t, []int64{1, 3, 4, 6}, got.ClientIDs)
	assert.Equal(t, 4, got.Count())
	assert.Equal(t, 5, got.Rows.Len())
	require.Equal(t, 4, got.Earliest.Len())
	for _, rec := range got.Earliest.Records {
		if rec.ClientID.Int64 == 6 {
			assert.Equal(t, int64(61), rec.EnrollmentID.Int64)
		}
	}
}

func TestResolveNewlyIdentifiedEmptyReportingPeriod(t *testing.T) {
	history := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2022-02-01"},
	)
	rp := ReportingPeriodSubset(history, testWindow())

	got := ResolveNewlyIdentified(rp, history, DefaultConfig())
	assert.Zero(t, got.Count())
	assert.Zero(t, got.Rows.Len())
	assert.Zero(t, got.Earliest.Len())
}

func TestReportingPeriodSubsetIgnoresVeteranStatus(t *testing.T) {
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColVeteranStatus: "No"},
		row{models.ColClientID: "2", models.ColProjectType: "Day Shelter", models.ColProjectStart: "2024-02-01"},
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-12-01"},
	)

	assert.Equal(t, []int64{1}, clientIDs(ReportingPeriodSubset(ds, testWindow())))
}
