package benchmark

import "time"

// Recognised project types. Only enrollments in these types are counted.
const (
	ProjectTypeTH          = "Transitional Housing"
	ProjectTypeCE          = "Coordinated Entry"
	ProjectTypeRRH         = "PH – Rapid Re-Housing"
	ProjectTypePSH         = "PH – Permanent Supportive Housing (disability required for entry)"
	ProjectTypeESNightly   = "Emergency Shelter – Night-by-Night"
	ProjectTypeESEntryExit = "Emergency Shelter – Entry Exit"
	ProjectTypeOther       = "Other"
	ProjectTypeSO          = "Street Outreach"
	ProjectTypePHHousing   = "PH – Housing Only"
	ProjectTypePHServices  = "PH – Housing with Services (no disability required for entry)"
	ProjectTypeSafeHaven   = "Safe Haven"

	// PHPrefix prefixes every permanent housing project type.
	PHPrefix = "PH –"
)

// Field values the predicates compare against.
const (
	VeteransByNameList   = "Veterans By Name List"
	DestinationPermanent = "Permanent Housing Situations"
	StayOneYearOrLonger  = "One year or longer"
	TimesFourOrMore      = "Four or more times"
	MonthsMoreThanTwelve = "More than 12 Months"
	PITChronicYes        = "Yes"
	OfferNotYet          = "Permanent Housing Not Offered Yet"
	OfferDecisionPending = "Decision Pending"
	affirmative          = "yes"
)

// AllowedProjectTypes lists the project types included in every metric.
var AllowedProjectTypes = []string{
	ProjectTypeTH,
	ProjectTypeCE,
	ProjectTypeRRH,
	ProjectTypePSH,
	ProjectTypeESNightly,
	ProjectTypeESEntryExit,
	ProjectTypeOther,
	ProjectTypeSO,
	ProjectTypePHHousing,
	ProjectTypePHServices,
	ProjectTypeSafeHaven,
}

// GPDFundingSources are the VA Grant Per Diem funds that mark a TH
// enrollment as GPD-funded.
var GPDFundingSources = []string{
	"VA: Grant Per Diem – Low Demand",
	"VA: Grant Per Diem – Hospital to Housing",
	"VA: Grant Per Diem – Clinical Treatment",
	"VA: Grant Per Diem – Service Intensive Transitional Housing",
}

// LiterallyHomelessResidences are prior living situations that count toward
// the chronic homelessness fallback logic.
var LiterallyHomelessResidences = []string{
	"Place not meant for habitation (e.g., a vehicle, an abandoned building, bus/train/subway station/airport or anywhere outside)",
	"Emergency shelter, including hotel or motel paid for with emergency shelter voucher, Host Home shelter",
	"Safe Haven",
	"Transitional housing for homeless persons (including homeless youth)",
}

// OpenExit stands in for a missing exit date.
var OpenExit = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

var (
	allowedSet    = toSet(AllowedProjectTypes)
	gpdSet        = toSet(GPDFundingSources)
	homelessPrior = toSet(LiterallyHomelessResidences)
)

// Config holds the day-count business rules. Non-positive values fall back
// to defaults, except TouchGraceDays where zero is honoured and only a
// negative value is replaced.
type Config struct {
	// WindowDays is the reporting window length, end date inclusive.
	WindowDays int
	// TouchGraceDays lets an enrollment starting this many days after the
	// running episode end still extend it.
	TouchGraceDays int
	// IdentificationResetDays is the gap between episodes that resets the
	// Date of Identification.
	IdentificationResetDays int
	// NewlyIdentifiedLookbackDays is how far back a prior enrollment must
	// reach to make a client a continuation rather than newly identified.
	NewlyIdentifiedLookbackDays int
	// OfferWindowDays bounds how recent a PH offer must be for A2.
	OfferWindowDays int
	// RecentPHDays bounds PH enrollment age for A4.
	RecentPHDays int
	// ChronicDurationDays is the continuous homelessness threshold.
	ChronicDurationDays int
}

// DefaultConfig returns the published benchmark rules.
func DefaultConfig() Config {
	return Config{
		WindowDays:                  90,
		TouchGraceDays:              1,
		IdentificationResetDays:     90,
		NewlyIdentifiedLookbackDays: 90,
		OfferWindowDays:             14,
		RecentPHDays:                90,
		ChronicDurationDays:         365,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = def.WindowDays
	}
	if c.TouchGraceDays < 0 {
		c.TouchGraceDays = def.TouchGraceDays
	}
	if c.IdentificationResetDays <= 0 {
		c.IdentificationResetDays = def.IdentificationResetDays
	}
	if c.NewlyIdentifiedLookbackDays <= 0 {
		c.NewlyIdentifiedLookbackDays = def.NewlyIdentifiedLookbackDays
	}
	if c.OfferWindowDays <= 0 {
		c.OfferWindowDays = def.OfferWindowDays
	}
	if c.RecentPHDays <= 0 {
		c.RecentPHDays = def.RecentPHDays
	}
	if c.ChronicDurationDays <= 0 {
		c.ChronicDurationDays = def.ChronicDurationDays
	}
	return c
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
