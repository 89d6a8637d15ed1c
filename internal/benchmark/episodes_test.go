package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

func enrollments(t *testing.T, spans ...[2]string) []models.Enrollment {
	t.Helper()
	rows := make([]row, 0, len(spans))
	for _, span := range spans {
		rows = append(rows, row{
			models.ColClientID:     "1",
			models.ColProjectType:  ProjectTypeSO,
			models.ColProjectStart: span[0],
			models.ColProjectExit:  span[1],
		})
	}
	return mustDataset(t, rows...).Records
}

func TestBuildSegmentsMergesTouchingEnrollments(t *testing.T) {
	recs := enrollments(t,
		[2]string{"2024-01-01", "2024-01-10"},
		[2]string{"2024-01-11", ""},
	)

	segments := BuildSegments(recs, DefaultConfig())
	require.Len(t, segments, 1)
	assert.Equal(t, date("2024-01-01"), segments[0].Start)
	assert.Equal(t, OpenExit, segments[0].End)
	assert.Equal(t, []int{0, 1}, segments[0].Rows)
}

func TestBuildSegmentsSplitsOnGap(t *testing.T) {
	recs := enrollments(t,
		[2]string{"2024-01-01", "2024-01-10"},
		[2]string{"2024-01-05", "2024-01-08"},
		[2]string{"2024-01-12", "2024-01-20"},
		[2]string{"", ""},
	)

	segments := BuildSegments(recs, DefaultConfig())
	require.Len(t, segments, 2)
	assert.Equal(t, date("2024-01-10"), segments[0].End)
	assert.Equal(t, []int{0, 1}, segments[0].Rows)
	assert.Equal(t, date("2024-01-12"), segments[1].Start)
}

func TestEpisodesWithShortGapShareIdentification(t *testing.T) {
	recs := enrollments(t,
		[2]string{"2023-01-01", "2023-02-01"},
		[2]string{"2023-03-18", "2023-04-01"}, // 45 days later
	)

	episodes := BuildEpisodes(BuildSegments(recs, DefaultConfig()), DefaultConfig())
	require.Len(t, episodes, 1)
	assert.Len(t, episodes[0].Segments, 2)
	assert.Equal(t, date("2023-01-01"), episodes[0].DateOfIdentification)
	assert.Equal(t, date("2023-04-01"), episodes[0].End())
}

func TestEpisodesWithLongGapResetIdentification(t *testing.T) {
	recs := enrollments(t,
		[2]string{"2023-01-01", "2023-02-01"},
		[2]string{"2023-06-01", "2023-07-01"}, // 120 days later
	)

	episodes := BuildEpisodes(BuildSegments(recs, DefaultConfig()), DefaultConfig())
	require.Len(t, episodes, 2)
	assert.Equal(t, date("2023-01-01"), episodes[0].DateOfIdentification)
	assert.Equal(t, date("2023-06-01"), episodes[1].DateOfIdentification)
	assert.NotEqual(t, episodes[0].DateOfIdentification, episodes[1].DateOfIdentification)
}

func TestDatesOfIdentificationUsesLatestEpisode(t *testing.T) {
	ds := mustDataset(t,
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-06-01", models.ColProjectExit: "2023-07-01"},
		row{models.ColClientID: "1", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-01-01", models.ColProjectExit: "2023-02-01"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-01-01", models.ColProjectExit: "2023-02-01"},
		row{models.ColClientID: "2", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-03-01"},
		row{models.ColClientID: "", models.ColProjectType: ProjectTypeSO, models.ColProjectStart: "2023-03-01"},
	)

	doi := DatesOfIdentification(ds, DefaultConfig())
	assert.Len(t, doi, 2)
	assert.Equal(t, date("2023-06-01"), doi[1])
	assert.Equal(t, date("2023-01-01"), doi[2])
}

func TestComputeHousingTimingTouchingScenario(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t,
		row{models.ColClientID: "7", models.ColEnrollmentID: "2", models.ColProjectType: ProjectTypeRRH,
			models.ColProjectStart: "2024-01-11", models.ColMoveIn: "2024-02-01"},
		row{models.ColClientID: "7", models.ColEnrollmentID: "1", models.ColProjectType: ProjectTypeESEntryExit,
			models.ColProjectStart: "2024-01-01", models.ColProjectExit: "2024-01-10"},
		row{models.ColClientID: "7", models.ColEnrollmentID: "1", models.ColProjectType: ProjectTypeESEntryExit,
			models.ColProjectStart: "2024-01-01", models.ColProjectExit: "2024-01-10"},
	)

	timing := ComputeHousingTiming(ds, w, DefaultConfig())

	require.Equal(t, 2, timing.Detail.Len(), "duplicate enrollment is dropped")
	assert.Equal(t, "2024-01-01", timing.Detail.Value(0, models.ColProjectStart))
	for i := 0; i < timing.Detail.Len(); i++ {
		assert.Equal(t, "2024-01-01", timing.Detail.Value(i, models.ColDateOfIdentification))
		assert.Equal(t, "2024-02-01", timing.Detail.Value(i, models.ColLastHousingEvent))
		assert.Equal(t, "31", timing.Detail.Value(i, models.ColDaysToHousing))
	}

	require.Equal(t, 1, timing.Summary.Len())
	assert.Equal(t, []string{"7", "2024-01-10", "2024-02-01", "2024-01-01", "2024-02-01", "31"}, timing.Summary.Rows[0])
	assert.Equal(t, []int{31}, timing.Days)
	require.NotNil(t, timing.Average)
	require.NotNil(t, timing.Median)
	assert.Equal(t, 31.0, *timing.Average)
	assert.Equal(t, 31.0, *timing.Median)
}

func TestComputeHousingTimingPrefersLaterExit(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t,
		row{models.ColClientID: "3", models.ColEnrollmentID: "1", models.ColProjectType: ProjectTypePSH,
			models.ColProjectStart: "2024-01-05", models.ColMoveIn: "2024-01-20", models.ColProjectExit: "2024-03-01"},
	)

	timing := ComputeHousingTiming(ds, w, DefaultConfig())
	require.Equal(t, 1, timing.Summary.Len())
	assert.Equal(t, "2024-03-01", timing.Summary.Value(0, models.ColLastHousingEvent))
	assert.Equal(t, "56", timing.Summary.Value(0, models.ColDaysToHousing))
}

func TestComputeHousingTimingWithoutEvents(t *testing.T) {
	w := testWindow()
	ds := mustDataset(t,
		row{models.ColClientID: "3", models.ColProjectType: ProjectTypePSH, models.ColProjectStart: "2023-01-05", models.ColMoveIn: "2023-01-20"},
	)

	timing := ComputeHousingTiming(ds, w, DefaultConfig())
	assert.Equal(t, "", timing.Summary.Value(0, models.ColDaysToHousing))
	assert.Empty(t, timing.Days)
	assert.Nil(t, timing.Average)
	assert.Nil(t, timing.Median)
}

func TestAverageAndMedian(t *testing.T) {
	assert.Nil(t, Average(nil))
	assert.Nil(t, Median([]int{}))

	avg := Average([]int{10, 20, 40})
	require.NotNil(t, avg)
	assert.InDelta(t, 23.333, *avg, 0.001)

	med := Median([]int{40, 10, 20})
	require.NotNil(t, med)
	assert.Equal(t, 20.0, *med)

	even := Median([]int{1, 4, 3, 10})
	require.NotNil(t, even)
	assert.Equal(t, 3.5, *even)
}
