package benchmark

import (
	"strings"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// IsAllowedType reports whether the project type is one of the recognised types.
func IsAllowedType(projectType string) bool {
	_, ok := allowedSet[projectType]
	return ok
}

// IsPH reports whether the project type is a permanent housing variant.
func IsPH(projectType string) bool {
	return strings.HasPrefix(projectType, PHPrefix)
}

// IsGPDTransitional reports whether the enrollment is Transitional Housing
// funded through a VA Grant Per Diem source. A blank funding source never matches.
func IsGPDTransitional(rec models.Enrollment) bool {
	if rec.ProjectType != ProjectTypeTH {
		return false
	}
	_, ok := gpdSet[rec.FundingSource]
	return ok
}

// PassesNameGuard rejects "Other" projects that are not the Veterans By Name List.
func PassesNameGuard(rec models.Enrollment) bool {
	return rec.ProjectType != ProjectTypeOther || rec.Name == VeteransByNameList
}

// IsActive reports whether the enrollment overlaps the window.
func IsActive(rec models.Enrollment, w Window) bool {
	if !rec.StartDate.Valid || rec.StartDate.Time.After(w.End) {
		return false
	}
	return !rec.ExitDate.Valid || !rec.ExitDate.Time.Before(w.Start)
}

// NotHoused reports whether the client is not yet housed through this
// enrollment by window end: any non-PH type, or PH without an earlier move-in.
func NotHoused(rec models.Enrollment, w Window) bool {
	if !IsPH(rec.ProjectType) {
		return true
	}
	return !rec.MoveInDate.Valid || !rec.MoveInDate.Time.Before(w.End)
}

// ActiveSubset keeps in-window enrollments of allowed types. When the dataset
// carries a Veteran Status column only veteran rows are kept.
func ActiveSubset(ds *Dataset, w Window) *Dataset {
	veteranOnly := ds.Table.Has(models.ColVeteranStatus)
	return ds.Where(func(rec models.Enrollment) bool {
		if !IsActive(rec, w) || !IsAllowedType(rec.ProjectType) {
			return false
		}
		return !veteranOnly || rec.VeteranStatus == affirmative
	})
}

// IsServed is the Vets_Served predicate.
func IsServed(rec models.Enrollment, w Window) bool {
	return NotHoused(rec, w) && PassesNameGuard(rec)
}

// Served returns the served rows of an active subset.
func Served(active *Dataset, w Window) *Dataset {
	return active.Where(func(rec models.Enrollment) bool { return IsServed(rec, w) })
}

// IsPHPlaced reports whether the enrollment is a permanent housing placement
// inside the window, either through move-in or through a final exit to a
// permanent destination.
func IsPHPlaced(rec models.Enrollment, w Window, excludeGPDTH bool) bool {
	if !PassesNameGuard(rec) {
		return false
	}
	if excludeGPDTH && IsGPDTransitional(rec) {
		return false
	}
	movedIn := IsPH(rec.ProjectType) && rec.MoveInDate.Valid && w.Contains(rec.MoveInDate.Time)
	exited := rec.LastEnrollment == affirmative &&
		rec.Destination == DestinationPermanent &&
		rec.ExitDate.Valid && w.Contains(rec.ExitDate.Time)
	return movedIn || exited
}

// PHPlaced returns the placement rows of an active subset.
func PHPlaced(active *Dataset, w Window, excludeGPDTH bool) *Dataset {
	return active.Where(func(rec models.Enrollment) bool { return IsPHPlaced(rec, w, excludeGPDTH) })
}

// FilterByCoC keeps rows matching the selected CoC values. Empty selections
// and selections on absent columns match everything.
func FilterByCoC(ds *Dataset, programCoC, localCoC string) *Dataset {
	programCoC = strings.TrimSpace(programCoC)
	localCoC = strings.TrimSpace(localCoC)
	if programCoC != "" && !ds.Table.Has(models.ColProgramCoC) {
		programCoC = ""
	}
	if localCoC != "" && !ds.Table.Has(models.ColLocalCoC) {
		localCoC = ""
	}
	if programCoC == "" && localCoC == "" {
		return ds
	}
	return ds.Where(func(rec models.Enrollment) bool {
		if programCoC != "" && strings.TrimSpace(rec.ProgramCoC) != programCoC {
			return false
		}
		return localCoC == "" || strings.TrimSpace(rec.LocalCoC) == localCoC
	})
}

// CoCOptions returns the distinct non-empty values of a CoC column, sorted.
func CoCOptions(t *Table, col string) []string {
	return distinctSorted(t.Column(col))
}

// UniqueClients returns the distinct non-null client IDs in first-seen order.
func UniqueClients(ds *Dataset) []int64 {
	seen := make(map[int64]struct{}, len(ds.Records))
	out := make([]int64, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if !rec.ClientID.Valid {
			continue
		}
		if _, ok := seen[rec.ClientID.Int64]; ok {
			continue
		}
		seen[rec.ClientID.Int64] = struct{}{}
		out = append(out, rec.ClientID.Int64)
	}
	return out
}

// Dedup drops repeated rows keyed on client and enrollment ID when both
// columns exist, otherwise on client ID alone. The first occurrence wins.
func Dedup(ds *Dataset) *Dataset {
	withEnrollment := ds.Table.Has(models.ColEnrollmentID)
	type key struct {
		client, enrollment int64
		clientNull, enrNull bool
	}
	seen := make(map[key]struct{}, len(ds.Records))
	idx := make([]int, 0, len(ds.Records))
	for i, rec := range ds.Records {
		k := key{client: rec.ClientID.Int64, clientNull: !rec.ClientID.Valid}
		if withEnrollment {
			k.enrollment = rec.EnrollmentID.Int64
			k.enrNull = !rec.EnrollmentID.Valid
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		idx = append(idx, i)
	}
	return ds.Subset(idx)
}
