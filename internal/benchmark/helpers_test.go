package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// testToday places the window at 2024-01-02..2024-03-31.
var testToday = time.Date(2024, time.March, 31, 15, 30, 0, 0, time.UTC)

var testColumns = []string{
	models.ColClientID,
	models.ColEnrollmentID,
	models.ColProjectType,
	models.ColProjectStart,
	models.ColProjectExit,
	models.ColMoveIn,
	models.ColVeteranStatus,
	models.ColFundingSource,
	models.ColDestination,
	models.ColLastEnrollment,
	models.ColName,
	models.ColPriorResidence,
	models.ColStayLength,
	models.ColPITChronic,
	models.ColEpisodeStart,
	models.ColPHOffer,
	models.ColPHOfferDate,
	models.ColOfferDecision,
	models.ColProgramCoC,
	models.ColLocalCoC,
}

type row map[string]string

func buildTable(columns []string, rows ...row) *Table {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			v, ok := r[col]
			if !ok && col == models.ColVeteranStatus {
				v = "Yes"
			}
			cells[i] = v
		}
		out = append(out, cells)
	}
	return NewTable(columns, out)
}

func mustDataset(t *testing.T, rows ...row) *Dataset {
	t.Helper()
	ds, err := Normalize(buildTable(testColumns, rows...))
	require.NoError(t, err)
	return ds
}

func testWindow() Window {
	return NewWindow(testToday, 90)
}

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func clientIDs(ds *Dataset) []int64 {
	return UniqueClients(ds)
}
