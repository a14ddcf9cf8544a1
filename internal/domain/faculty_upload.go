package domain

import "time"

// DefaultMaxHoursPerDay applies when an upload omits the column.
const DefaultMaxHoursPerDay = 6

// FacultyUpload is the staging record created from roster spreadsheets. It is keyed by
// employee id and only weakly linked to a Credential (by email).
type FacultyUpload struct {
	ID             string
	Name           string
	Email          string
	EmployeeID     string
	Department     string
	Subject        string
	Subjects       []string
	Campus         string
	Phone          string
	Availability   []DayAvailability
	MaxHoursPerDay int
	Active         bool
	UploadedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
