package models

// StudentType tags which applicants a scholarship is open to.
type StudentType string

const (
	StudentTypeFirstYear StudentType = "first-year"
	StudentTypeTransfer  StudentType = "transfer"
	StudentTypeBoth      StudentType = "both"
)

// ScholarshipRecord is one scholarship listing tied to an institution.
// InstitutionKey is the canonical catalog key; CollegeName is denormalized
// from the source data and is what the name-based fallback lookup matches on.
type ScholarshipRecord struct {
	ID             string      `json:"id"`
	InstitutionKey string      `json:"institution_key"`
	CollegeName    string      `json:"college_name,omitempty"`
	Name           string      `json:"name"`
	Amount         string      `json:"amount,omitempty"`
	Deadline       string      `json:"deadline,omitempty"`
	Eligibility    []string    `json:"eligibility,omitempty"`
	StudentType    StudentType `json:"student_type,omitempty"`
	Category       string      `json:"category,omitempty"`
	SourceURL      string      `json:"source_url,omitempty"`
	RawText        string      `json:"raw_text,omitempty"`
}
