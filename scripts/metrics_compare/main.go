// Command metrics_compare posts reference extracts to a running API and
// compares the returned metric values against previously exported summary
// tables. It exits non-zero when a critical case drifts.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type testCase struct {
	Name       string `json:"name"`
	File       string `json:"file"`
	Expected   string `json:"expected"`
	ProgramCoC string `json:"program_coc"`
	LocalCoC   string `json:"local_coc"`
	Critical   bool   `json:"critical"`
}

type config struct {
	Cases []testCase `json:"cases"`
}

type expectedSummary struct {
	PeriodEnd string
	Values    map[string]string
}

type apiMetric struct {
	ID    string   `json:"id"`
	Value *float64 `json:"value"`
}

type apiEnvelope struct {
	Data *struct {
		PeriodEnd string      `json:"period_end"`
		Metrics   []apiMetric `json:"metrics"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type metricDiff struct {
	ID       string
	Expected string
	Actual   string
}

type comparison struct {
	Case          testCase
	Diffs         []metricDiff
	PeriodSkipped bool
	Error         error
	Duration      time.Duration
}

func main() {
	var (
		base      string
		casesPath string
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including the prefix")
	flag.StringVar(&casesPath, "cases", "", "Path to JSON cases file")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()
	if casesPath == "" {
		log.Fatal("-cases is required")
	}

	cases, err := loadCases(casesPath)
	if err != nil {
		log.Fatalf("failed to load cases: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []comparison
		breaking int
		optional int
	)
	for _, tc := range cases {
		res := runCase(client, base, tc)
		if res.Error != nil || len(res.Diffs) > 0 {
			if tc.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadCases(path string) ([]testCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined in %s", path)
	}
	return cfg.Cases, nil
}

func runCase(client *http.Client, base string, tc testCase) comparison {
	res := comparison{Case: tc}
	expected, err := loadExpected(tc.Expected)
	if err != nil {
		res.Error = fmt.Errorf("expected summary: %w", err)
		return res
	}

	start := time.Now()
	env, err := evaluate(client, base, tc)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}

	if expected.PeriodEnd != "" && expected.PeriodEnd != env.Data.PeriodEnd {
		res.PeriodSkipped = true
		return res
	}
	res.Diffs = compareMetrics(expected.Values, env.Data.Metrics)
	return res
}

func evaluate(client *http.Client, base string, tc testCase) (*apiEnvelope, error) {
	if client == nil {
		return nil, errors.New("nil client")
	}
	body, contentType, err := multipartBody(tc.File)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if tc.ProgramCoC != "" {
		query.Set("program_coc", tc.ProgramCoC)
	}
	if tc.LocalCoC != "" {
		query.Set("local_coc", tc.LocalCoC)
	}
	endpoint := strings.TrimRight(base, "/") + "/metrics"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", env.Error.Code, env.Error.Message)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty response (status %d)", resp.StatusCode)
	}
	return &env, nil
}

func multipartBody(path string) (io.Reader, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

// loadExpected reads a summary table exported by the API or the dashboard.
func loadExpected(path string) (*expectedSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseSummary(file)
}

func parseSummary(r io.Reader) (*expectedSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.New("summary has no rows")
	}

	index := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		index[strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")] = i
	}
	idCol, okID := index["Metric ID"]
	valueCol, okValue := index["Value"]
	if !okID || !okValue {
		return nil, errors.New(`summary needs "Metric ID" and "Value" columns`)
	}
	endCol, hasEnd := index["Reporting Period End"]

	out := &expectedSummary{Values: make(map[string]string, len(records)-1)}
	for _, rec := range records[1:] {
		if idCol >= len(rec) {
			continue
		}
		value := ""
		if valueCol < len(rec) {
			value = strings.TrimSpace(rec[valueCol])
		}
		out.Values[strings.TrimSpace(rec[idCol])] = value
		if hasEnd && endCol < len(rec) && out.PeriodEnd == "" {
			out.PeriodEnd = strings.TrimSpace(rec[endCol])
		}
	}
	return out, nil
}

// compareMetrics matches values at one decimal place, the precision the
// summary table is written with. An empty expected value means no data.
func compareMetrics(expected map[string]string, actual []apiMetric) []metricDiff {
	got := make(map[string]*float64, len(actual))
	for _, m := range actual {
		got[m.ID] = m.Value
	}

	ids := make([]string, 0, len(expected))
	for id := range expected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var diffs []metricDiff
	for _, id := range ids {
		want := expected[id]
		value, ok := got[id]
		actualText := "missing"
		if ok {
			actualText = ""
			if value != nil {
				actualText = decimal.NewFromFloat(*value).Round(1).String()
			}
		}
		if !valuesMatch(want, actualText) {
			diffs = append(diffs, metricDiff{ID: id, Expected: want, Actual: actualText})
		}
	}
	return diffs
}

func valuesMatch(want, got string) bool {
	if want == "" || got == "" || got == "missing" {
		return want == got
	}
	w, err := decimal.NewFromString(want)
	if err != nil {
		return false
	}
	g, err := decimal.NewFromString(got)
	if err != nil {
		return false
	}
	return w.Round(1).Equal(g.Round(1))
}

func printReport(results []comparison) {
	fmt.Println("Metrics Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.PeriodSkipped:
			status = "SKIP"
		case len(res.Diffs) > 0:
			status = "DIFF"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Case.Name, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		if res.PeriodSkipped {
			fmt.Println("  Reporting period differs from the expected summary")
			continue
		}
		for _, d := range res.Diffs {
			fmt.Printf("  %s: expected %q got %q\n", d.ID, d.Expected, d.Actual)
		}
	}
}
