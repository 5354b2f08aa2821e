package enums

import "fmt"

// RestockDecision records the operator's call on whether approved return
// items go back on the shelf.
type RestockDecision string

const (
	RestockDecisionYes RestockDecision = "yes"
	RestockDecisionNo  RestockDecision = "no"
)

var validRestockDecisions = []RestockDecision{RestockDecisionYes, RestockDecisionNo}

// IsValid reports whether the value matches the canonical restock decision enum.
func (d RestockDecision) IsValid() bool {
	for _, candidate := range validRestockDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseRestockDecision converts raw input into RestockDecision. An empty
// value is treated as "no": items are considered damaged or lost unless the
// operator explicitly chooses restock.
func ParseRestockDecision(value string) (RestockDecision, error) {
	if value == "" {
		return RestockDecisionNo, nil
	}
	for _, candidate := range validRestockDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid restock decision %q", value)
}
