package benchmark

import (
	"sort"
	"time"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// NewlyIdentified is the outcome of newly identified resolution.
type NewlyIdentified struct {
	ClientIDs []int64
	// Rows holds every reporting period row of the newly identified clients.
	Rows *Dataset
	// Earliest holds the earliest reporting period row per client.
	Earliest *Dataset
}

// Count returns the number of newly identified clients.
func (n NewlyIdentified) Count() int {
	return len(n.ClientIDs)
}

// ReportingPeriodSubset keeps enrollments of allowed types starting inside the window.
func ReportingPeriodSubset(ds *Dataset, w Window) *Dataset {
	return ds.Where(func(rec models.Enrollment) bool {
		return rec.StartDate.Valid && w.Contains(rec.StartDate.Time) && IsAllowedType(rec.ProjectType)
	})
}

// ResolveNewlyIdentified classifies every client of the reporting period
// subset against their full history.
func ResolveNewlyIdentified(rp, history *Dataset, cfg Config) NewlyIdentified {
	cfg = cfg.withDefaults()

	earliest := make(map[int64]time.Time)
	earliestRow := make(map[int64]int)
	for i, rec := range rp.Records {
		if !rec.ClientID.Valid || !rec.StartDate.Valid {
			continue
		}
		id := rec.ClientID.Int64
		if prev, ok := earliest[id]; !ok || rec.StartDate.Time.Before(prev) {
			earliest[id] = rec.StartDate.Time
			earliestRow[id] = i
		}
	}
	if len(earliest) == 0 {
		empty := rp.Subset(nil)
		return NewlyIdentified{ClientIDs: []int64{}, Rows: empty, Earliest: empty}
	}

	priors := make(map[int64][]models.Enrollment)
	for _, rec := range history.Records {
		if !rec.ClientID.Valid || !rec.StartDate.Valid {
			continue
		}
		first, ok := earliest[rec.ClientID.Int64]
		if !ok || !rec.StartDate.Time.Before(first) {
			continue
		}
		priors[rec.ClientID.Int64] = append(priors[rec.ClientID.Int64], rec)
	}

	newIDs := make([]int64, 0, len(earliest))
	for id, first := range earliest {
		if isNewlyIdentified(priors[id], first, cfg) {
			newIDs = append(newIDs, id)
		}
	}
	sort.Slice(newIDs, func(i, j int) bool { return newIDs[i] < newIDs[j] })

	selected := make(map[int64]struct{}, len(newIDs))
	firstRows := make([]int, 0, len(newIDs))
	for _, id := range newIDs {
		selected[id] = struct{}{}
		firstRows = append(firstRows, earliestRow[id])
	}
	sort.Ints(firstRows)

	return NewlyIdentified{
		ClientIDs: newIDs,
		Rows: rp.Where(func(rec models.Enrollment) bool {
			if !rec.ClientID.Valid {
				return false
			}
			_, ok := selected[rec.ClientID.Int64]
			return ok
		}),
		Earliest: rp.Subset(firstRows),
	}
}

func isNewlyIdentified(prior []models.Enrollment, earliest time.Time, cfg Config) bool {
	hasAllowed := false
	for _, rec := range prior {
		if IsAllowedType(rec.ProjectType) {
			hasAllowed = true
			break
		}
	}
	if !hasAllowed {
		return true
	}
	lookback := earliest.AddDate(0, 0, -cfg.NewlyIdentifiedLookbackDays)
	for _, rec := range prior {
		if !rec.EffectiveExit(OpenExit).Before(lookback) {
			return false
		}
	}
	return true
}
