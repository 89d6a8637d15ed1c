package benchmark

import (
	"database/sql"
	"sort"
	"strconv"
	"time"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// Segment is a run of overlapping or touching enrollments.
type Segment struct {
	Start time.Time
	End   time.Time
	Rows  []int
}

// Episode groups segments separated by less than the identification reset gap.
type Episode struct {
	DateOfIdentification time.Time
	Segments             []Segment
}

// End returns the end of the episode's last segment.
func (e Episode) End() time.Time {
	return e.Segments[len(e.Segments)-1].End
}

// BuildSegments merges a single client's enrollments. Records must be sorted
// by start date; records without a start date are skipped.
func BuildSegments(recs []models.Enrollment, cfg Config) []Segment {
	cfg = cfg.withDefaults()
	var (
		segments []Segment
		current  *Segment
	)
	for _, rec := range recs {
		if !rec.StartDate.Valid {
			continue
		}
		end := rec.EffectiveExit(OpenExit)
		if current != nil && !rec.StartDate.Time.After(current.End.AddDate(0, 0, cfg.TouchGraceDays)) {
			if end.After(current.End) {
				current.End = end
			}
			current.Rows = append(current.Rows, rec.Row)
			continue
		}
		segments = append(segments, Segment{Start: rec.StartDate.Time, End: end, Rows: []int{rec.Row}})
		current = &segments[len(segments)-1]
	}
	return segments
}

// BuildEpisodes joins consecutive segments whose gap is shorter than the
// reset threshold. The first segment always opens an episode.
func BuildEpisodes(segments []Segment, cfg Config) []Episode {
	cfg = cfg.withDefaults()
	var episodes []Episode
	for i, seg := range segments {
		if i > 0 && daysBetween(segments[i-1].End, seg.Start) < cfg.IdentificationResetDays {
			last := &episodes[len(episodes)-1]
			last.Segments = append(last.Segments, seg)
			continue
		}
		episodes = append(episodes, Episode{DateOfIdentification: seg.Start, Segments: []Segment{seg}})
	}
	return episodes
}

// DatesOfIdentification returns each client's current Date of Identification,
// taken from the latest episode built over every row of the dataset.
func DatesOfIdentification(ds *Dataset, cfg Config) map[int64]time.Time {
	byClient := make(map[int64][]models.Enrollment)
	for _, rec := range ds.Records {
		if !rec.ClientID.Valid {
			continue
		}
		byClient[rec.ClientID.Int64] = append(byClient[rec.ClientID.Int64], rec)
	}
	out := make(map[int64]time.Time, len(byClient))
	for id, recs := range byClient {
		sortByStart(recs)
		episodes := BuildEpisodes(BuildSegments(recs, cfg), cfg)
		if len(episodes) == 0 {
			continue
		}
		out[id] = episodes[len(episodes)-1].DateOfIdentification
	}
	return out
}

// HousingTiming is the days-to-housing breakdown behind B2 and B3.
type HousingTiming struct {
	// Detail carries every deduplicated enrollment with derived columns.
	Detail *Table
	// Summary carries one row per client.
	Summary *Table
	// Days holds the per-client day counts that are not null.
	Days    []int
	Average *float64
	Median  *float64
}

// DerivedTimingColumns are appended to the detail table.
var DerivedTimingColumns = []string{
	models.ColLastExit,
	models.ColLastMoveIn,
	models.ColDateOfIdentification,
	models.ColLastHousingEvent,
	models.ColDaysToHousing,
}

// ComputeHousingTiming derives Date of Identification and days to housing for
// every client present in rows.
func ComputeHousingTiming(rows *Dataset, w Window, cfg Config) HousingTiming {
	cfg = cfg.withDefaults()
	lastExit := make(map[int64]time.Time)
	lastMoveIn := make(map[int64]time.Time)
	for _, rec := range rows.Records {
		if !rec.ClientID.Valid || !IsAllowedType(rec.ProjectType) {
			continue
		}
		id := rec.ClientID.Int64
		if rec.ExitDate.Valid && w.Contains(rec.ExitDate.Time) {
			if prev, ok := lastExit[id]; !ok || rec.ExitDate.Time.After(prev) {
				lastExit[id] = rec.ExitDate.Time
			}
		}
		if rec.MoveInDate.Valid && w.Contains(rec.MoveInDate.Time) {
			if prev, ok := lastMoveIn[id]; !ok || rec.MoveInDate.Time.After(prev) {
				lastMoveIn[id] = rec.MoveInDate.Time
			}
		}
	}

	deduped := Dedup(rows)
	order := make([]int, len(deduped.Records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return recordLess(deduped.Records[order[a]], deduped.Records[order[b]])
	})
	sorted := deduped.Subset(order)
	doi := DatesOfIdentification(sorted, cfg)

	type derived struct {
		exit, moveIn, doi, event sql.NullTime
		days                     sql.NullInt64
	}
	values := make([]derived, len(sorted.Records))
	for i, rec := range sorted.Records {
		if !rec.ClientID.Valid {
			continue
		}
		id := rec.ClientID.Int64
		var d derived
		if t, ok := lastExit[id]; ok {
			d.exit = sql.NullTime{Time: t, Valid: true}
		}
		if t, ok := lastMoveIn[id]; ok {
			d.moveIn = sql.NullTime{Time: t, Valid: true}
		}
		if t, ok := doi[id]; ok {
			d.doi = sql.NullTime{Time: t, Valid: true}
		}
		d.event = lastHousingEvent(d.exit, d.moveIn)
		if d.event.Valid && d.doi.Valid {
			d.days = sql.NullInt64{Int64: int64(daysBetween(d.doi.Time, d.event.Time)), Valid: true}
		}
		values[i] = d
	}

	detail := sorted.Table.WithColumns(DerivedTimingColumns, func(row int) []string {
		d := values[row]
		return []string{FormatDate(d.exit), FormatDate(d.moveIn), FormatDate(d.doi), FormatDate(d.event), formatID(d.days)}
	})

	summaryCols := append([]string{models.ColClientID}, DerivedTimingColumns...)
	timing := HousingTiming{Detail: detail}
	seen := make(map[int64]struct{})
	var summaryRows [][]string
	for i, rec := range sorted.Records {
		if !rec.ClientID.Valid {
			continue
		}
		if _, ok := seen[rec.ClientID.Int64]; ok {
			continue
		}
		seen[rec.ClientID.Int64] = struct{}{}
		d := values[i]
		summaryRows = append(summaryRows, []string{
			strconv.FormatInt(rec.ClientID.Int64, 10),
			FormatDate(d.exit), FormatDate(d.moveIn), FormatDate(d.doi), FormatDate(d.event), formatID(d.days),
		})
		if d.days.Valid {
			timing.Days = append(timing.Days, int(d.days.Int64))
		}
	}
	timing.Summary = NewTable(summaryCols, summaryRows)
	timing.Average = Average(timing.Days)
	timing.Median = Median(timing.Days)
	return timing
}

// lastHousingEvent picks the later of the two dates, preferring the exit
// when the move-in is missing or earlier.
func lastHousingEvent(exit, moveIn sql.NullTime) sql.NullTime {
	if !moveIn.Valid || (exit.Valid && moveIn.Time.Before(exit.Time)) {
		return exit
	}
	return moveIn
}

// Average returns the mean of values, or nil when there are none.
func Average(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	avg := sum / float64(len(values))
	return &avg
}

// Median returns the median of values, or nil when there are none.
func Median(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 0 {
		m = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		m = float64(sorted[mid])
	}
	return &m
}

func sortByStart(recs []models.Enrollment) {
	sort.SliceStable(recs, func(i, j int) bool {
		return startLess(recs[i].StartDate, recs[j].StartDate)
	})
}

// recordLess orders by client then start date. Null values sort last.
func recordLess(a, b models.Enrollment) bool {
	if a.ClientID.Valid != b.ClientID.Valid {
		return a.ClientID.Valid
	}
	if a.ClientID.Int64 != b.ClientID.Int64 {
		return a.ClientID.Int64 < b.ClientID.Int64
	}
	return startLess(a.StartDate, b.StartDate)
}

func startLess(a, b sql.NullTime) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.Valid && a.Time.Before(b.Time)
}
