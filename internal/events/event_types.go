package events

import (
	"time"

	"github.com/spec-kit/schedulo/internal/domain"
)

// EventType enumerates supported event identifiers. Values are the names clients listen for.
type EventType string

const (
	EventAllocationCreated  EventType = "new-allocation"
	EventAllocationUpdated  EventType = "allocation-updated"
	EventAllocationComplete EventType = "allocation-complete"
)

// AllEventTypes lists every relayed event type.
var AllEventTypes = []EventType{EventAllocationCreated, EventAllocationUpdated, EventAllocationComplete}

// Event represents a notification addressed to one or more rooms.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Rooms     []string    `json:"rooms"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRoom is the room every socket of a user joins.
func UserRoom(userID string) string {
	return "user:" + userID
}

// RoleRoom is the room shared by every socket of a role.
func RoleRoom(role domain.Role) string {
	return "role:" + string(role)
}

// AllocationPayload describes a single duty.
type AllocationPayload struct {
	AllocationID string    `json:"allocationId"`
	FacultyID    string    `json:"facultyId"`
	ExamName     string    `json:"examName"`
	ExamDate     time.Time `json:"examDate"`
	Room         string    `json:"room,omitempty"`
	Shift        string    `json:"shift,omitempty"`
}

// AllocationCompletePayload summarizes a notification run for admins and HODs.
type AllocationCompletePayload struct {
	Notified int `json:"notified"`
	Skipped  int `json:"skipped"`
}
