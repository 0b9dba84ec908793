package enums

import "fmt"

// UnitStatus reflects whether a unit is rentable, rented, or held back.
type UnitStatus string

const (
	UnitStatusVacant      UnitStatus = "VACANT"
	UnitStatusOccupied    UnitStatus = "OCCUPIED"
	UnitStatusMaintenance UnitStatus = "MAINTENANCE"
	UnitStatusUnavailable UnitStatus = "UNAVAILABLE"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusVacant,
	UnitStatusOccupied,
	UnitStatusMaintenance,
	UnitStatusUnavailable,
}

// String implements fmt.Stringer.
func (u UnitStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitStatus.
func (u UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
