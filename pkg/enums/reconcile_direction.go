package enums

import "fmt"

// ReconcileDirection states whether a physical-count correction adds or
// removes stock.
type ReconcileDirection string

const (
	ReconcileDirectionIn  ReconcileDirection = "in"
	ReconcileDirectionOut ReconcileDirection = "out"
)

var validReconcileDirections = []ReconcileDirection{ReconcileDirectionIn, ReconcileDirectionOut}

// IsValid reports whether the value matches the canonical direction enum.
func (d ReconcileDirection) IsValid() bool {
	for _, candidate := range validReconcileDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseReconcileDirection converts raw input into ReconcileDirection.
func ParseReconcileDirection(value string) (ReconcileDirection, error) {
	for _, candidate := range validReconcileDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconcile direction %q", value)
}
