package models

import (
	"database/sql"
	"strconv"
	"time"
)

// Column headers recognised in enrollment extracts. Names must match the
// export byte for byte, including the en dash used by PH project types.
const (
	ColClientID             = "Client ID"
	ColEnrollmentID         = "Enrollment ID"
	ColProjectType          = "Project Type Code"
	ColProjectStart         = "Project Start Date"
	ColProjectExit          = "Project Exit Date"
	ColMoveIn               = "Housing Move-in Date"
	ColVeteranStatus        = "Veteran Status"
	ColFundingSource        = "Funding Source"
	ColDestination          = "Destination Category"
	ColLastEnrollment       = "Is Last Enrollment in System (Yes / No)"
	ColName                 = "Name"
	ColEpisodeStart         = "Approximate Date this Episode of Homelessness Started Date"
	ColPriorResidence       = "Residence Prior to Project Entry"
	ColStayLength           = "Length of Stay in Prior Living Situation"
	ColTimesHomeless        = "Times Homeless in the Past Three Years"
	ColMonthsHomeless       = "Total Months Homeless in Past Three Years"
	ColPITChronic           = "Chronically Homeless at PIT/Current Date - Household"
	ColPHOffer              = "Permanent Housing Offer"
	ColPHOfferDate          = "Date of PH Offer"
	ColOfferDecision        = "Did the Veteran accept or decline the offer?"
	ColProgramCoC           = "Program Setup CoC"
	ColLocalCoC             = "Local CoC Code"
	ColLastExit             = "Last Exit"
	ColLastMoveIn           = "Last Move-in"
	ColDateOfIdentification = "Date of Identification"
	ColLastHousingEvent     = "Last Housing Event"
	ColDaysToHousing        = "Days Since Identification to Housing"
)

// ShadowSuffix marks the primary copy of a duplicated export column.
const ShadowSuffix = ".1"

// Shadow returns the ".1" companion header for col.
func Shadow(col string) string {
	return col + ShadowSuffix
}

// Enrollment is the typed view over one normalized extract row.
type Enrollment struct {
	Row          int
	ClientID     sql.NullInt64
	EnrollmentID sql.NullInt64
	ProjectType  string

	StartDate        sql.NullTime
	ExitDate         sql.NullTime
	MoveInDate       sql.NullTime
	EpisodeStartDate sql.NullTime
	OfferDate        sql.NullTime

	VeteranStatus  string
	FundingSource  string
	Destination    string
	LastEnrollment string
	Name           string

	PriorResidence string
	StayLength     string
	TimesHomeless  string
	MonthsHomeless string
	PITChronic     string

	PHOffer       string
	OfferDecision string

	ProgramCoC string
	LocalCoC   string
}

// EffectiveExit returns the exit date, or openEnd when the enrollment is still open.
func (e Enrollment) EffectiveExit(openEnd time.Time) time.Time {
	if e.ExitDate.Valid {
		return e.ExitDate.Time
	}
	return openEnd
}

// HMISEnrollment mirrors a row of the warehouse enrollment view.
type HMISEnrollment struct {
	ClientID            sql.NullInt64  `db:"client_id"`
	EnrollmentID        sql.NullInt64  `db:"enrollment_id"`
	ProjectType         sql.NullString `db:"project_type"`
	ProjectStartDate    sql.NullTime   `db:"project_start_date"`
	ProjectExitDate     sql.NullTime   `db:"project_exit_date"`
	MoveInDate          sql.NullTime   `db:"housing_move_in_date"`
	VeteranStatus       sql.NullString `db:"veteran_status"`
	FundingSource       sql.NullString `db:"funding_source"`
	DestinationCategory sql.NullString `db:"destination_category"`
	LastEnrollment      sql.NullString `db:"is_last_enrollment"`
	ProjectName         sql.NullString `db:"project_name"`
	EpisodeStartDate    sql.NullTime   `db:"episode_start_date"`
	PriorResidence      sql.NullString `db:"residence_prior"`
	StayLength          sql.NullString `db:"length_of_stay_prior"`
	TimesHomeless       sql.NullString `db:"times_homeless_3y"`
	MonthsHomeless      sql.NullString `db:"months_homeless_3y"`
	PITChronic          sql.NullString `db:"chronic_pit"`
	PHOffer             sql.NullString `db:"ph_offer"`
	PHOfferDate         sql.NullTime   `db:"ph_offer_date"`
	OfferDecision       sql.NullString `db:"ph_offer_decision"`
	ProgramCoC          sql.NullString `db:"program_coc"`
	LocalCoC            sql.NullString `db:"local_coc"`
}

// HMISFilter scopes warehouse extraction. ActiveSince keeps enrollments
// that were still open on or after the given date.
type HMISFilter struct {
	ProgramCoC  string
	LocalCoC    string
	ActiveSince *time.Time
	Limit       int
}

// HMISColumns is the extract header written for warehouse imports, in the
// order produced by HMISEnrollment.Values.
var HMISColumns = []string{
	ColClientID, ColEnrollmentID, ColProjectType, ColProjectStart, ColProjectExit,
	ColMoveIn, ColVeteranStatus, ColFundingSource, ColDestination, ColLastEnrollment,
	ColName, ColEpisodeStart, ColPriorResidence, ColStayLength, ColTimesHomeless,
	ColMonthsHomeless, ColPITChronic, ColPHOffer, ColPHOfferDate, ColOfferDecision,
	ColProgramCoC, ColLocalCoC,
}

// Values renders the row as extract text aligned with HMISColumns.
func (e HMISEnrollment) Values() []string {
	return []string{
		nullInt(e.ClientID), nullInt(e.EnrollmentID), e.ProjectType.String,
		nullDate(e.ProjectStartDate), nullDate(e.ProjectExitDate), nullDate(e.MoveInDate),
		e.VeteranStatus.String, e.FundingSource.String, e.DestinationCategory.String,
		e.LastEnrollment.String, e.ProjectName.String, nullDate(e.EpisodeStartDate),
		e.PriorResidence.String, e.StayLength.String, e.TimesHomeless.String,
		e.MonthsHomeless.String, e.PITChronic.String, e.PHOffer.String,
		nullDate(e.PHOfferDate), e.OfferDecision.String, e.ProgramCoC.String, e.LocalCoC.String,
	}
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullDate(v sql.NullTime) string {
	if !v.Valid {
		return ""
	}
	return v.Time.UTC().Format("2006-01-02")
}
