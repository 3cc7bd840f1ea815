package rosterimport

// Layout identifies which spreadsheet template an upload follows.
type Layout string

// Known layouts.
const (
	LayoutGeneric     Layout = "generic"
	LayoutSpecialized Layout = "specialized"
)

// Candidate status values.
const (
	StatusNew      = "new"
	StatusExisting = "existing"
	StatusError    = "error"
)

// RawRow is one row of cell text as extracted from a sheet.
// Empty cells are "" and numeric cells arrive in their raw textual form.
type RawRow []string

// Candidate is one parsed, not yet committed roster row.
// PRE: built by NormalizeRow or Revalidate
// INVARIANT: ValidationError != "" if and only if Status == StatusError
type Candidate struct {
	Row             int    `json:"row"`
	FullName        string `json:"full_name"`
	IdentifierCode  string `json:"identifier_code,omitempty"`
	Email           string `json:"email,omitempty"`
	PositionLabel   string `json:"position_label,omitempty"`
	TerritoryLabel  string `json:"territory_label,omitempty"`
	ExperienceDays  int    `json:"experience_days"`
	Phone           string `json:"phone,omitempty"`
	Specialized     bool   `json:"is_specialized_layout"`
	ApprovalStatus  string `json:"approval_status,omitempty"`
	ValidationError string `json:"validation_error,omitempty"`
	Status          string `json:"status"`
	PersonID        string `json:"person_id,omitempty"`
}

// IsValid reports whether the candidate may advance past the preview stage.
func (c Candidate) IsValid() bool {
	return c.ValidationError == ""
}

// Summary counts candidates by status.
type Summary struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	Existing int `json:"existing"`
	Invalid  int `json:"invalid"`
}

// Summarize tallies a candidate list by status.
func Summarize(cands []Candidate) Summary {
	s := Summary{Total: len(cands)}
	for _, c := range cands {
		switch {
		case !c.IsValid():
			s.Invalid++
		case c.Status == StatusExisting:
			s.Existing++
		default:
			s.New++
		}
	}
	return s
}
