package benchmark

import (
	"strings"

	"github.com/noah-isme/vet-benchmarks-api/internal/models"
)

// ChronicMetrics holds the A1 to A4 row sets.
type ChronicMetrics struct {
	A1 *Dataset
	A2 *Dataset
	A3 *Dataset
	A4 *Dataset
}

// IsChronic evaluates the chronic homelessness predicate. Shadowed inputs are
// already resolved on the record.
func IsChronic(rec models.Enrollment, w Window, cfg Config) bool {
	if rec.PITChronic == PITChronicYes {
		return true
	}
	if _, ok := homelessPrior[rec.PriorResidence]; !ok {
		return false
	}
	if rec.StayLength == StayOneYearOrLonger {
		return true
	}
	if rec.EpisodeStartDate.Valid {
		until := rec.EffectiveExit(w.End)
		if daysBetween(rec.EpisodeStartDate.Time, until) > cfg.ChronicDurationDays {
			return true
		}
	}
	return rec.TimesHomeless == TimesFourOrMore && rec.MonthsHomeless == MonthsMoreThanTwelve
}

func hasPendingOffer(rec models.Enrollment, w Window, cfg Config) bool {
	offer := strings.TrimSpace(rec.PHOffer)
	if offer == "" || offer == OfferNotYet {
		return false
	}
	if !rec.OfferDate.Valid {
		return false
	}
	cutoff := w.End.AddDate(0, 0, -(cfg.OfferWindowDays - 1))
	if rec.OfferDate.Time.Before(cutoff) {
		return false
	}
	return rec.OfferDecision == OfferDecisionPending
}

// ComputeChronic evaluates A1 to A4 over an active subset.
func ComputeChronic(active *Dataset, w Window, cfg Config) ChronicMetrics {
	cfg = cfg.withDefaults()
	chronic := func(rec models.Enrollment) bool {
		return PassesNameGuard(rec) && IsChronic(rec, w, cfg)
	}
	a1 := func(rec models.Enrollment) bool {
		return chronic(rec) && NotHoused(rec, w)
	}
	return ChronicMetrics{
		A1: active.Where(a1),
		A2: active.Where(func(rec models.Enrollment) bool {
			return a1(rec) && hasPendingOffer(rec, w, cfg)
		}),
		A3: active.Where(func(rec models.Enrollment) bool {
			return chronic(rec) && IsGPDTransitional(rec)
		}),
		A4: active.Where(func(rec models.Enrollment) bool {
			if !chronic(rec) || !IsPH(rec.ProjectType) || !NotHoused(rec, w) {
				return false
			}
			return daysBetween(rec.StartDate.Time, w.End) < cfg.RecentPHDays
		}),
	}
}
