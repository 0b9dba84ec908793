package enums

import "fmt"

// LeaseStatus tracks the lifecycle of a lease record.
type LeaseStatus string

const (
	LeaseStatusDraft            LeaseStatus = "DRAFT"
	LeaseStatusPendingSignature LeaseStatus = "PENDING_SIGNATURE"
	LeaseStatusActive           LeaseStatus = "ACTIVE"
	LeaseStatusExpiringSoon     LeaseStatus = "EXPIRING_SOON"
	LeaseStatusExpired          LeaseStatus = "EXPIRED"
	LeaseStatusTerminated       LeaseStatus = "TERMINATED"
	LeaseStatusRenewed          LeaseStatus = "RENEWED"
)

var validLeaseStatuses = []LeaseStatus{
	LeaseStatusDraft,
	LeaseStatusPendingSignature,
	LeaseStatusActive,
	LeaseStatusExpiringSoon,
	LeaseStatusExpired,
	LeaseStatusTerminated,
	LeaseStatusRenewed,
}

// String implements fmt.Stringer.
func (l LeaseStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeaseStatus.
func (l LeaseStatus) IsValid() bool {
	for _, candidate := range validLeaseStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from the status.
func (l LeaseStatus) IsTerminal() bool {
	switch l {
	case LeaseStatusExpired, LeaseStatusTerminated, LeaseStatusRenewed:
		return true
	default:
		return false
	}
}

// Blocking reports whether a lease in this status occupies its unit's calendar
// for overlap purposes.
func (l LeaseStatus) Blocking() bool {
	switch l {
	case LeaseStatusActive, LeaseStatusPendingSignature, LeaseStatusExpiringSoon:
		return true
	default:
		return false
	}
}

// ParseLeaseStatus converts raw input into a LeaseStatus.
func ParseLeaseStatus(value string) (LeaseStatus, error) {
	for _, candidate := range validLeaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease status %q", value)
}
