package benchmark

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// Metric identifiers.
const (
	MetricServed          = "Vets_Served"
	MetricPHPlacements    = "PH_Placements"
	MetricA1              = "A1"
	MetricA2              = "A2"
	MetricA3              = "A3"
	MetricA4              = "A4"
	MetricB1              = "B1"
	MetricB2              = "B2"
	MetricB3              = "B3"
	MetricC1              = "C1"
	MetricC2              = "C2"
	MetricD1              = "D1"
	MetricD2              = "D2"
	summaryFilename       = "veterans_metrics_summary"
	summaryValuePrecision = 1
)

// Summary table headers.
const (
	ColMetricID    = "Metric ID"
	ColMetricName  = "Metric Name"
	ColMetricValue = "Value"
	ColPeriodStart = "Reporting Period Start"
	ColPeriodEnd   = "Reporting Period End"
)

// ErrNoRecords is returned when Compute receives no dataset.
var ErrNoRecords = errors.New("benchmark: no records to compute")

// Metric is one named benchmark value with the rows behind it.
type Metric struct {
	ID    string
	Name  string
	Value *float64
	// Rows is the exportable row set, deduplicated.
	Rows *Table
	// Filename is the export file stem.
	Filename string
}

// Result is the complete metric set for one run.
type Result struct {
	Window          Window
	Metrics         []Metric
	Timing          HousingTiming
	NewlyIdentified []int64
}

// Metric looks up a metric by ID.
func (r *Result) Metric(id string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.ID == id {
			return m, true
		}
	}
	return Metric{}, false
}

// Input is what one computation consumes.
type Input struct {
	// Records is the dataset metrics are computed over, after any CoC filter.
	Records *Dataset
	// History is the unfiltered upload used for newly identified lookups.
	// Records is used when nil.
	History *Dataset
}

// Engine runs the benchmark pipeline. It holds no state between runs.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine constructs an engine.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg.withDefaults(), logger: logger, now: time.Now}
}

// WithClock overrides the clock used to place the reporting window.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	if now != nil {
		clone.now = now
	}
	return &clone
}

// Config returns the effective rules.
func (e *Engine) Config() Config {
	return e.cfg
}

// Window returns the reporting window as of now.
func (e *Engine) Window() Window {
	return NewWindow(e.now().UTC(), e.cfg.WindowDays)
}

// Compute evaluates every metric over the input.
func (e *Engine) Compute(in Input) (*Result, error) {
	if in.Records == nil || in.Records.Table == nil {
		return nil, ErrNoRecords
	}
	for _, col := range RequiredColumns {
		if !in.Records.Table.Has(col) {
			return nil, &MissingColumnError{Column: col}
		}
	}
	history := in.History
	if history == nil {
		history = in.Records
	}
	if len(in.Records.Missing) > 0 {
		e.logger.Debug("optional columns missing", zap.Strings("columns", in.Records.Missing))
	}

	w := e.Window()
	active := ActiveSubset(in.Records, w)
	served := Served(active, w)
	placed := PHPlaced(active, w, false)
	placedExcl := PHPlaced(active, w, true)

	population := make(map[int64]struct{})
	for _, id := range UniqueClients(placedExcl) {
		population[id] = struct{}{}
	}
	timingRows := in.Records.Where(func(rec models.Enrollment) bool {
		if !rec.ClientID.Valid {
			return false
		}
		_, ok := population[rec.ClientID.Int64]
		return ok
	})
	timing := ComputeHousingTiming(timingRows, w, e.cfg)

	chronic := ComputeChronic(active, w, e.cfg)

	newly := ResolveNewlyIdentified(ReportingPeriodSubset(in.Records, w), history, e.cfg)
	newlyRows := Dedup(newly.Rows)
	newlyGPD := newlyRows.Where(IsGPDTransitional)
	newlyEarliest := Dedup(newly.Earliest).Table

	placedExclRows := Dedup(placedExcl).Table

	result := &Result{
		Window:          w,
		Timing:          timing,
		NewlyIdentified: newly.ClientIDs,
	}
	result.Metrics = []Metric{
		countMetric(MetricServed, "Veterans Served (Past 90 Days)", "veterans_served", served),
		countMetric(MetricPHPlacements, "Veterans Placed in Permanent Housing", "ph_placements_no_th_excl", placed),
		countMetric(MetricA1, "Chronic & Long-Term Homeless Veterans Not in PH", "chronic_vets_not_in_ph", chronic.A1),
		countMetric(MetricA2, "Chronic Veterans with Recent PH Offers (Decision Pending)", "chronic_vets_ph_offer_pending", chronic.A2),
		countMetric(MetricA3, "Chronic Veterans in GPD-Funded TH Programs", "chronic_vets_in_gpd_th", chronic.A3),
		countMetric(MetricA4, "Chronic Veterans Recently Enrolled in PH, Not Yet Housed", "chronic_vets_ph_not_housed", chronic.A4),
		{
			ID:       MetricB1,
			Name:     "Veterans Placed in PH (Excluding GPD-Funded TH)",
			Value:    count(placedExcl),
			Rows:     placedExclRows,
			Filename: "ph_placements_th_excluded",
		},
		{
			ID:       MetricB2,
			Name:     "Average Days from Identification to Housing",
			Value:    timing.Average,
			Rows:     timing.Summary,
			Filename: "veterans_summary_days_to_ph",
		},
		{
			ID:       MetricB3,
			Name:     "Median Days from Identification to Housing",
			Value:    timing.Median,
			Rows:     timing.Detail,
			Filename: "veteran_data_processed",
		},
		{
			ID:       MetricC1,
			Name:     "Veterans Placed in PH (Excluding GPD-Funded TH)",
			Value:    count(placedExcl),
			Rows:     placedExclRows.Clone(),
			Filename: "ph_placements_th_excluded",
		},
		{
			ID:       MetricC2,
			Name:     "Newly Identified Veterans",
			Value:    floatPtr(float64(newly.Count())),
			Rows:     newlyEarliest,
			Filename: "newly_identified_veterans",
		},
		countMetric(MetricD1, "Newly Identified Vets Entering GPD-Funded Transitional Housing", "newly_identified_th_gpd_veterans", newlyGPD),
		{
			ID:       MetricD2,
			Name:     "Newly Identified Veterans",
			Value:    floatPtr(float64(newly.Count())),
			Rows:     newlyEarliest.Clone(),
			Filename: "newly_identified_veterans",
		},
	}

	e.logger.Debug("benchmark computed",
		zap.Time("window_start", w.Start),
		zap.Time("window_end", w.End),
		zap.Int("records", in.Records.Len()),
		zap.Int("active", active.Len()),
		zap.Int("served", len(UniqueClients(served))),
		zap.Int("newly_identified", newly.Count()),
	)
	return result, nil
}

func countMetric(id, name, filename string, ds *Dataset) Metric {
	return Metric{ID: id, Name: name, Value: count(ds), Rows: Dedup(ds).Table, Filename: filename}
}

func count(ds *Dataset) *float64 {
	return floatPtr(float64(len(UniqueClients(ds))))
}

func floatPtr(v float64) *float64 {
	return &v
}

// FormatValue renders a metric value with at most one decimal. A nil value
// renders as an empty cell.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	d := decimal.NewFromFloat(*v)
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(summaryValuePrecision)
}

// RoundValue rounds a metric value to one decimal place.
func RoundValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f, _ := decimal.NewFromFloat(*v).Round(summaryValuePrecision).Float64()
	return &f
}

// SummaryTable lists every metric with the reporting period.
func SummaryTable(r *Result) *Table {
	start := r.Window.Start.Format(DateLayout)
	end := r.Window.End.Format(DateLayout)
	rows := make([][]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		rows = append(rows, []string{m.ID, m.Name, FormatValue(m.Value), start, end})
	}
	return NewTable([]string{ColMetricID, ColMetricName, ColMetricValue, ColPeriodStart, ColPeriodEnd}, rows)
}

// SummaryFilename is the export stem of the summary table.
func SummaryFilename() string {
	return summaryFilename
}

// MetricIDs returns every metric ID in presentation order.
func MetricIDs() []string {
	return []string{
		MetricServed, MetricPHPlacements,
		MetricA1, MetricA2, MetricA3, MetricA4,
		MetricB1, MetricB2, MetricB3,
		MetricC1, MetricC2,
		MetricD1, MetricD2,
	}
}

// CanonicalMetricID maps a case-insensitive metric ID to its canonical form.
func CanonicalMetricID(id string) (string, bool) {
	for _, m := range MetricIDs() {
		if strings.EqualFold(m, id) {
			return m, true
		}
	}
	return "", false
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
