package domain

import "time"

// TimeSlot is a start/end pair such as "09:00"-"12:00".
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayAvailability lists the slots a faculty member can invigilate on a weekday.
type DayAvailability struct {
	Day       string     `json:"day"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

// Credential is a role-tagged login record held by the admin, hod or faculty store.
type Credential struct {
	ID           string
	Role         Role
	Name         string
	Email        string
	EmployeeID   string
	PasswordHash string
	Department   string
	Campus       string
	Phone        string
	Subject      string
	Subjects     []string
	Availability []DayAvailability
	Active       bool

	ResetOTP          *string
	ResetOTPExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingOTP reports whether a reset code is stored.
func (c *Credential) HasPendingOTP() bool {
	return c.ResetOTP != nil && *c.ResetOTP != "" && c.ResetOTPExpiresAt != nil
}

// Profile is the sanitized view of a credential returned to clients.
type Profile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Role       Role     `json:"role"`
	EmployeeID string   `json:"employeeId"`
	Department string   `json:"department,omitempty"`
	Campus     string   `json:"campus,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Subjects   []string `json:"subjects,omitempty"`
	Active     bool     `json:"isActive"`
}

// Profile strips secrets from the credential.
func (c *Credential) Profile() Profile {
	p := Profile{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Role:       c.Role,
		EmployeeID: c.EmployeeID,
		Department: c.Department,
		Campus:     c.Campus,
		Phone:      c.Phone,
		Active:     c.Active,
	}
	if c.Role == RoleFaculty {
		p.Subject = c.Subject
		p.Subjects = c.Subjects
	}
	return p
}
