// Package models defines core data structures for institution records,
// scholarships, the catalog, and chat requests.
package models

// InstitutionRecord is a structured digest of one college's Common Data Set
// report. Section pointers are nil when the source report omitted the section;
// field pointers are nil when a single figure is absent. Records are written
// by the loader and are read-only everywhere else.
type InstitutionRecord struct {
	Key          string        `json:"key"`
	Name         string        `json:"name"`
	General      *GeneralInfo  `json:"general,omitempty"`
	Admissions   *Admissions   `json:"admissions,omitempty"`
	Enrollment   *Enrollment   `json:"enrollment,omitempty"`
	Costs        *Costs        `json:"costs,omitempty"`
	FinancialAid *FinancialAid `json:"financial_aid,omitempty"`
}

// GeneralInfo holds identity and location fields from section A of the report.
type GeneralInfo struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Website string `json:"website,omitempty"`
	Control string `json:"control,omitempty"` // public | private
}

// Admissions holds first-year admission figures from section C.
type Admissions struct {
	TotalApplied  *int        `json:"total_applied,omitempty"`
	TotalAdmitted *int        `json:"total_admitted,omitempty"`
	TotalEnrolled *int        `json:"total_enrolled,omitempty"`
	SATComposite  *ScoreRange `json:"sat_composite,omitempty"`
	ACTComposite  *ScoreRange `json:"act_composite,omitempty"`
}

// AcceptanceRate returns admitted/applied as a percentage. The second return
// is false when either count is absent or zero; callers must omit the figure
// entirely in that case rather than render 0% or NaN.
func (a *Admissions) AcceptanceRate() (float64, bool) {
	if a == nil || a.TotalApplied == nil || a.TotalAdmitted == nil {
		return 0, false
	}
	if *a.TotalApplied == 0 || *a.TotalAdmitted == 0 {
		return 0, false
	}
	return float64(*a.TotalAdmitted) / float64(*a.TotalApplied) * 100, true
}

// ScoreRange holds 25th/50th/75th percentile composite test scores.
type ScoreRange struct {
	P25 *int `json:"p25,omitempty"`
	P50 *int `json:"p50,omitempty"`
	P75 *int `json:"p75,omitempty"`
}

// Enrollment holds enrollment figures from section B.
type Enrollment struct {
	TotalUndergrad      *int     `json:"total_undergrad,omitempty"`
	TotalGraduate       *int     `json:"total_graduate,omitempty"`
	RetentionRate       *float64 `json:"retention_rate,omitempty"` // percent, e.g. 97.5
	StudentFacultyRatio string   `json:"student_faculty_ratio,omitempty"`
}

// Costs holds annual cost-of-attendance figures from section G.
type Costs struct {
	TuitionInState    *float64 `json:"tuition_in_state,omitempty"`
	TuitionOutOfState *float64 `json:"tuition_out_of_state,omitempty"`
	Fees              *float64 `json:"fees,omitempty"`
	RoomAndBoard      *float64 `json:"room_and_board,omitempty"`
}

// Tuition returns the headline tuition figure: in-state when present,
// otherwise out-of-state (private colleges typically report a single figure).
func (c *Costs) Tuition() *float64 {
	if c == nil {
		return nil
	}
	if c.TuitionInState != nil {
		return c.TuitionInState
	}
	return c.TuitionOutOfState
}

// FinancialAid holds aid figures from section H.
type FinancialAid struct {
	AverageAidPackage *float64 `json:"average_aid_package,omitempty"`
	PercentNeedMet    *float64 `json:"percent_need_met,omitempty"`
}
