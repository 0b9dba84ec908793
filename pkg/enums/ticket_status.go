package enums

import "fmt"

// TicketStatus tracks a maintenance ticket from intake to resolution.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "OPEN"
	TicketStatusWaitingVendor TicketStatus = "WAITING_VENDOR"
	TicketStatusInProgress    TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingParts  TicketStatus = "WAITING_PARTS"
	TicketStatusScheduled     TicketStatus = "SCHEDULED"
	TicketStatusCompleted     TicketStatus = "COMPLETED"
	TicketStatusCancelled     TicketStatus = "CANCELLED"
)

var validTicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusWaitingVendor,
	TicketStatusInProgress,
	TicketStatusWaitingParts,
	TicketStatusScheduled,
	TicketStatusCompleted,
	TicketStatusCancelled,
}

// String implements fmt.Stringer.
func (t TicketStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketStatus.
func (t TicketStatus) IsValid() bool {
	for _, candidate := range validTicketStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from the status.
func (t TicketStatus) IsTerminal() bool {
	return t == TicketStatusCompleted || t == TicketStatusCancelled
}

// ParseTicketStatus converts raw input into a TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	for _, candidate := range validTicketStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket status %q", value)
}
