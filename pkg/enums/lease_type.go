package enums

import "fmt"

// LeaseType distinguishes the contractual term structure of a lease.
type LeaseType string

const (
	LeaseTypeFixedTerm    LeaseType = "FIXED_TERM"
	LeaseTypeMonthToMonth LeaseType = "MONTH_TO_MONTH"
	LeaseTypeYearToYear   LeaseType = "YEAR_TO_YEAR"
)

var validLeaseTypes = []LeaseType{
	LeaseTypeFixedTerm,
	LeaseTypeMonthToMonth,
	LeaseTypeYearToYear,
}

// String implements fmt.Stringer.
func (l LeaseType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LeaseType.
func (l LeaseType) IsValid() bool {
	for _, candidate := range validLeaseTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLeaseType converts raw input into a LeaseType.
func ParseLeaseType(value string) (LeaseType, error) {
	for _, candidate := range validLeaseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lease type %q", value)
}
