package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

func TestActiveSubset(t *testing.T) {
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-12-01"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-10-01", models.ColProjectExit: "2024-01-01"},
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-04-01"},
		row{models.ColClientID: "4", models.ColProjectType: "Day Shelter", models.ColProjectStart: "2024-02-01"},
		row{models.ColClientID: "5", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColVeteranStatus: "No"},
		row{models.ColClientID: "6", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColVeteranStatus: " yes "},
		row{models.ColClientID: "7", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-10-01", models.ColProjectExit: "2024-01-02"},
		row{models.ColClientID: "8", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: ""},
	)

	active := ActiveSubset(ds, testWindow())
	assert.Equal(t, []int64{1, 6, 7}, clientIDs(active))
}

func TestActiveSubsetWithoutVeteranColumn(t *testing.T) {
	columns := []string{models.ColClientID, models.ColProjectType, models.ColProjectStart}
	ds, err := Normalize(NewTable(columns, [][]string{
		{"1", ProjectTypeSO, "2024-02-01"},
		{"2", ProjectTypeTH, "2024-02-02"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, clientIDs(ActiveSubset(ds, testWindow())))
}

func TestServed(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeTH, models.ColProjectStart: "2024-02-01"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeRRH, models.ColProjectStart: "2024-02-01"},
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypePSH, models.ColProjectStart: "2024-02-01", models.ColMoveIn: "2024-02-10"},
		row{models.ColClientID: "4", models.ColProjectType: ProjectTypePHHousing, models.ColProjectStart: "2024-02-01", models.ColMoveIn: "2024-03-31"},
		row{models.ColClientID: "5", models.ColProjectType: ProjectTypeOther, models.ColProjectStart: "2024-02-01", models.ColName: "Landlord Outreach"},
		row{models.ColClientID: "6", models.ColProjectType: ProjectTypeOther, models.ColProjectStart: "2024-02-01", models.ColName: VeteransByNameList},
	)

	served := Served(ActiveSubset(ds, w), w)
	assert.Equal(t, []int64{1, 2, 4, 6}, clientIDs(served))
}

func TestPHPlaced(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t,
		// move-in inside window
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeRRH, models.ColProjectStart: "2024-01-15", models.ColMoveIn: "2024-02-01"},
		// move-in before window
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypePSH, models.ColProjectStart: "2023-06-01", models.ColMoveIn: "2023-07-01"},
		// exit to permanent destination on last enrollment
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeESEntryExit, models.ColProjectStart: "2024-01-10", models.ColProjectExit: "2024-02-20",
			models.ColLastEnrollment: "Yes", models.ColDestination: DestinationPermanent},
		// exit to permanent destination, not the last enrollment
		row{models.ColClientID: "4", models.ColProjectType: ProjectTypeESEntryExit, models.ColProjectStart: "2024-01-10", models.ColProjectExit: "2024-02-20",
			models.ColLastEnrollment: "No", models.ColDestination: DestinationPermanent},
		// GPD-funded TH exit
		row{models.ColClientID: "5", models.ColProjectType: ProjectTypeTH, models.ColProjectStart: "2024-01-10", models.ColProjectExit: "2024-02-20",
			models.ColLastEnrollment: "yes", models.ColDestination: DestinationPermanent, models.ColFundingSource: GPDFundingSources[2]},
		// TH exit without a funding source
		row{models.ColClientID: "6", models.ColProjectType: ProjectTypeTH, models.ColProjectStart: "2024-01-10", models.ColProjectExit: "2024-02-20",
			models.ColLastEnrollment: "yes", models.ColDestination: DestinationPermanent},
		// Other program off the by-name list
		row{models.ColClientID: "7", models.ColProjectType: ProjectTypeOther, models.ColProjectStart: "2024-01-10", models.ColProjectExit: "2024-02-20",
			models.ColLastEnrollment: "yes", models.ColDestination: DestinationPermanent},
	)
	active := ActiveSubset(ds, w)

	all := PHPlaced(active, w, false)
	excl := PHPlaced(active, w, true)

	assert.Equal(t, []int64{1, 3, 5, 6}, clientIDs(all))
	assert.Equal(t, []int64{1, 3, 6}, clientIDs(excl))
	assert.LessOrEqual(t, len(clientIDs(excl)), len(clientIDs(all)))
}

func TestNameGuardExcludesOtherEverywhere(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t, row{
		models.ColClientID:       "9",
		models.ColProjectType:    ProjectTypeOther,
		models.ColName:           "Community Meals",
		models.ColProjectStart:   "2024-01-20",
		models.ColProjectExit:    "2024-02-20",
		models.ColLastEnrollment: "Yes",
		models.ColDestination:    DestinationPermanent,
		models.ColPITChronic:     PITChronicYes,
	})
	active := ActiveSubset(ds, w)
	require.Equal(t, 1, active.Len())

	assert.Zero(t, Served(active, w).Len())
	assert.Zero(t, PHPlaced(active, w, false).Len())
	assert.Zero(t, PHPlaced(active, w, true).Len())
	chronic := ComputeChronic(active, w, DefaultConfig())
	assert.Zero(t, chronic.A1.Len())
	assert.Zero(t, chronic.A2.Len())
	assert.Zero(t, chronic.A3.Len())
	assert.Zero(t, chronic.A4.Len())
}

func TestFilterByCoC(t *testing.T) {
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColProgramCoC: "CA-600", models.ColLocalCoC: "LA"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColProgramCoC: "CA-600", models.ColLocalCoC: "LB"},
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01", models.ColProgramCoC: "CA-500", models.ColLocalCoC: "LA"},
	)

	assert.Same(t, ds, FilterByCoC(ds, "", ""))
	assert.Equal(t, []int64{1, 2}, clientIDs(FilterByCoC(ds, "CA-600", "")))
	assert.Equal(t, []int64{1, 3}, clientIDs(FilterByCoC(ds, "", "LA")))
	assert.Equal(t, []int64{1}, clientIDs(FilterByCoC(ds, "CA-600", "LA")))
	assert.Empty(t, clientIDs(FilterByCoC(ds, "CA-999", "")))

	assert.Equal(t, []string{"CA-500", "CA-600"}, CoCOptions(ds.Table, models.ColProgramCoC))
	assert.Equal(t, []string{"LA", "LB"}, CoCOptions(ds.Table, models.ColLocalCoC))
}

func TestDedup(t *testing.T) {
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColEnrollmentID: "10", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-01"},
		row{models.ColClientID: "1", models.ColEnrollmentID: "10", models.ColProjectType: ProjectTypeTH, models.ColProjectStart: "2024-02-03"},
		row{models.ColClientID: "1", models.ColEnrollmentID: "11", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2024-02-05"},
	)

	deduped := Dedup(ds)
	require.Equal(t, 2, deduped.Len())
	assert.Equal(t, ProjectTypeSO, deduped.Records[0].ProjectType)
	assert.Equal(t, int64(11), deduped.Records[1].EnrollmentID.Int64)

	clientOnly, err := Normalize(NewTable(
		[]string{models.ColClientID, models.ColProjectType, models.ColProjectStart},
		[][]string{{"1", ProjectTypeSO, "2024-02-01"}, {"1", ProjectTypeTH, "2024-02-02"}, {"2", ProjectTypeSO, "2024-02-02"}},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, Dedup(clientOnly).Len())
}
