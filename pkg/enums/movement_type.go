package enums

import "fmt"

// MovementType maps to the movement_type enum in Postgres.
type MovementType string

const (
	MovementTypeShipment       MovementType = "shipment"
	MovementTypeRestock        MovementType = "restock"
	MovementTypeReconciliation MovementType = "reconciliation"
)

var validMovementTypes = []MovementType{
	MovementTypeShipment,
	MovementTypeRestock,
	MovementTypeReconciliation,
}

// IsValid reports whether the value matches the canonical movement type enum.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
