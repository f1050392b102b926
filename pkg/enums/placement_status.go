package enums

import "fmt"

// PlacementStatus tracks the durable order placement intent.
type PlacementStatus string

const (
	PlacementStatusInitiated PlacementStatus = "initiated"
	PlacementStatusCompleted PlacementStatus = "completed"
	PlacementStatusAbandoned PlacementStatus = "abandoned"
)

var validPlacementStatuses = []PlacementStatus{
	PlacementStatusInitiated,
	PlacementStatusCompleted,
	PlacementStatusAbandoned,
}

// String implements fmt.Stringer.
func (s PlacementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PlacementStatus.
func (s PlacementStatus) IsValid() bool {
	for _, candidate := range validPlacementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePlacementStatus converts raw input into a PlacementStatus.
func ParsePlacementStatus(value string) (PlacementStatus, error) {
	for _, candidate := range validPlacementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid placement status %q", value)
}
