package models

// JournalStudent is a row in the journal matrix.
type JournalStudent struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// JournalView is the dense journal projection for one subject-group binding:
// every student of the group crossed with every lesson date. Cells without a
// record are present and null, so clients can render the table directly.
// Grade cells hold the latest mark recorded for that date.
type JournalView struct {
	Faculty        string                      `json:"faculty"`
	Group          string                      `json:"group"`
	Subject        string                      `json:"subject"`
	SubjectGroupID string                      `json:"subject_group_id"`
	Students       []JournalStudent            `json:"students"`
	Dates          []string                    `json:"dates"`
	Grades         map[string]map[string]*int  `json:"grades"`
	Attendance     map[string]map[string]*bool `json:"attendance"`
}
