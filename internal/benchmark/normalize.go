package benchmark

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// DateLayout is the canonical rendering of normalized date cells.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 3:04:05 PM",
	"1/2/06",
	"1-2-06",
	"2006/01/02",
}

// RequiredColumns must be present for any metric to be computed.
var RequiredColumns = []string{models.ColClientID, models.ColProjectStart, models.ColProjectType}

var optionalColumns = []string{
	models.ColEnrollmentID,
	models.ColProjectExit,
	models.ColMoveIn,
	models.ColVeteranStatus,
	models.ColFundingSource,
	models.ColDestination,
	models.ColLastEnrollment,
	models.ColName,
	models.ColPITChronic,
	models.ColPHOffer,
	models.ColPHOfferDate,
	models.ColOfferDecision,
}

var dateColumns = []string{
	models.ColProjectStart,
	models.ColProjectExit,
	models.ColMoveIn,
	models.ColEpisodeStart,
	models.Shadow(models.ColEpisodeStart),
	models.ColPHOfferDate,
}

// MissingColumnError reports an absent required column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// Dataset is a normalized table together with its typed records. Records[i]
// describes Table.Rows[i].
type Dataset struct {
	Table   *Table
	Records []models.Enrollment
	// Missing lists optional columns absent from the source.
	Missing []string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Subset returns the rows at idx as a new dataset with renumbered records.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Table:   d.Table.Select(idx),
		Records: make([]models.Enrollment, 0, len(idx)),
		Missing: d.Missing,
	}
	for _, i := range idx {
		if i < 0 || i >= len(d.Records) {
			continue
		}
		rec := d.Records[i]
		rec.Row = len(out.Records)
		out.Records = append(out.Records, rec)
	}
	return out
}

// Where returns the records matching keep.
func (d *Dataset) Where(keep func(models.Enrollment) bool) *Dataset {
	idx := make([]int, 0, len(d.Records))
	for i, rec := range d.Records {
		if keep(rec) {
			idx = append(idx, i)
		}
	}
	return d.Subset(idx)
}

// Normalize validates required columns, canonicalizes dates and ID columns,
// and decodes each row into an Enrollment. The raw table is not modified.
func Normalize(raw *Table) (*Dataset, error) {
	if raw == nil {
		return nil, &MissingColumnError{Column: models.ColClientID}
	}
	for _, col := range RequiredColumns {
		if !raw.Has(col) {
			return nil, &MissingColumnError{Column: col}
		}
	}

	table := raw.Clone()
	ds := &Dataset{Table: table, Records: make([]models.Enrollment, len(table.Rows))}
	for _, col := range optionalColumns {
		if !table.Has(col) {
			ds.Missing = append(ds.Missing, col)
		}
	}

	for i := range table.Rows {
		ds.Records[i] = decodeRecord(raw, i)
	}

	for _, col := range table.Columns {
		if !strings.Contains(col, "ID") {
			continue
		}
		for i := range table.Rows {
			table.Set(i, col, formatID(ParseID(table.Value(i, col))))
		}
	}
	for _, col := range dateColumns {
		if !table.Has(col) {
			continue
		}
		for i := range table.Rows {
			table.Set(i, col, FormatDate(ParseDate(table.Value(i, col))))
		}
	}
	for i := range table.Rows {
		table.Set(i, models.ColProjectType, strings.TrimSpace(table.Value(i, models.ColProjectType)))
	}

	return ds, nil
}

func decodeRecord(raw *Table, row int) models.Enrollment {
	v := func(col string) string { return raw.Value(row, col) }
	shadow := func(col string) string { return ResolveShadow(v(models.Shadow(col)), v(col)) }

	return models.Enrollment{
		Row:              row,
		ClientID:         ParseID(v(models.ColClientID)),
		EnrollmentID:     ParseID(v(models.ColEnrollmentID)),
		ProjectType:      strings.TrimSpace(v(models.ColProjectType)),
		StartDate:        ParseDate(v(models.ColProjectStart)),
		ExitDate:         ParseDate(v(models.ColProjectExit)),
		MoveInDate:       ParseDate(v(models.ColMoveIn)),
		EpisodeStartDate: ParseDate(shadow(models.ColEpisodeStart)),
		OfferDate:        ParseDate(v(models.ColPHOfferDate)),
		VeteranStatus:    strings.ToLower(strings.TrimSpace(v(models.ColVeteranStatus))),
		FundingSource:    v(models.ColFundingSource),
		Destination:      v(models.ColDestination),
		LastEnrollment:   strings.ToLower(strings.TrimSpace(v(models.ColLastEnrollment))),
		Name:             v(models.ColName),
		PriorResidence:   shadow(models.ColPriorResidence),
		StayLength:       shadow(models.ColStayLength),
		TimesHomeless:    shadow(models.ColTimesHomeless),
		MonthsHomeless:   shadow(models.ColMonthsHomeless),
		PITChronic:       v(models.ColPITChronic),
		PHOffer:          v(models.ColPHOffer),
		OfferDecision:    v(models.ColOfferDecision),
		ProgramCoC:       v(models.ColProgramCoC),
		LocalCoC:         v(models.ColLocalCoC),
	}
}

// ResolveShadow returns primary unless it is missing or the empty string,
// otherwise fallback. Whitespace-only primaries are kept as-is.
func ResolveShadow(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

// ParseDate parses a calendar date in any accepted layout. Unparseable input
// yields an invalid NullTime. Times are truncated to UTC midnight.
func ParseDate(value string) sql.NullTime {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullTime{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return sql.NullTime{Time: truncateDay(t), Valid: true}
		}
	}
	return sql.NullTime{}
}

// FormatDate renders a NullTime as YYYY-MM-DD or "".
func FormatDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(DateLayout)
}

// ParseID coerces an identifier cell into an integer. Non-integral or
// non-numeric values are null.
func ParseID(value string) sql.NullInt64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullInt64{}
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return sql.NullInt64{}
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

func formatID(id sql.NullInt64) string {
	if !id.Valid {
		return ""
	}
	return strconv.FormatInt(id.Int64, 10)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int((truncateDay(to).Unix() - truncateDay(from).Unix()) / 86400)
}
