package domain

import "time"

// Allocation is an invigilation duty produced by the scheduler. FacultyID may point at a
// FacultyUpload or at a faculty Credential depending on import history.
type Allocation struct {
	ID        string
	FacultyID string
	ExamName  string
	ExamDate  time.Time
	Room      string
	Shift     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
