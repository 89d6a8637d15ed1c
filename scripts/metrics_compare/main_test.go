package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryCSV = "\ufeffMetric ID,Metric Name,Value,Reporting Period Start,Reporting Period End\n" +
	"Vets_Served,Veterans Served (Past 90 Days),3,2024-01-02,2024-03-31\n" +
	"B2,Average Days to Housing,31.25,2024-01-02,2024-03-31\n" +
	"B3,Median Days to Housing,,2024-01-02,2024-03-31\n"

func floatPtr(v float64) *float64 { return &v }

func TestParseSummary(t *testing.T) {
	got, err := parseSummary(strings.NewReader(summaryCSV))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", got.PeriodEnd)
	assert.Equal(t, map[string]string{"Vets_Served": "3", "B2": "31.25", "B3": ""}, got.Values)

	_, err = parseSummary(strings.NewReader("Name,Value\nA,1\n"))
	assert.Error(t, err)
}

func TestCompareMetrics(t *testing.T) {
	expected := map[string]string{"Vets_Served": "3", "B2": "31.25", "B3": "", "C1": "2"}
	actual := []apiMetric{
		{ID: "Vets_Served", Value: floatPtr(3)},
		{ID: "B2", Value: floatPtr(31.3)},
		{ID: "B3", Value: floatPtr(10)},
	}

	diffs := compareMetrics(expected, actual)
	require.Len(t, diffs, 2)
	assert.Equal(t, metricDiff{ID: "B3", Expected: "", Actual: "10"}, diffs[0])
	assert.Equal(t, metricDiff{ID: "C1", Expected: "2", Actual: "missing"}, diffs[1])
}

func TestRunCase(t *testing.T) {
	dir := t.TempDir()
	extract := filepath.Join(dir, "extract.csv")
	expected := filepath.Join(dir, "summary.csv")
	require.NoError(t, os.WriteFile(extract, []byte("Client ID\n1\n"), 0o600))
	require.NoError(t, os.WriteFile(expected, []byte(summaryCSV), 0o600))

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"period_end": "2024-03-31",
				"metrics": []map[string]interface{}{
					{"id": "Vets_Served", "value": 3},
					{"id": "B2", "value": 31.25},
					{"id": "B3", "value": nil},
				},
			},
		})
	}))
	defer srv.Close()

	res := runCase(srv.Client(), srv.URL+"/api/v1", testCase{Name: "sample", File: extract, Expected: expected, ProgramCoC: "CA-500"})
	require.NoError(t, res.Error)
	assert.Empty(t, res.Diffs)
	assert.False(t, res.PeriodSkipped)
	assert.Equal(t, "program_coc=CA-500", gotQuery)
}
