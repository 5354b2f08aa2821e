package enums

import "fmt"

// ReturnStatus maps to the return_status enum in Postgres.
type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "pending"
	ReturnStatusInspected ReturnStatus = "inspected"
	ReturnStatusApproved  ReturnStatus = "approved"
	ReturnStatusRejected  ReturnStatus = "rejected"
	ReturnStatusCompleted ReturnStatus = "completed"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusPending,
	ReturnStatusInspected,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusCompleted,
}

// IsValid reports whether the value matches the canonical return status enum.
func (s ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected || s == ReturnStatusCompleted
}

// returnTransitions is keyed by return type: customer returns skip inspection,
// RTO must pass through it and may be rejected there.
var returnTransitions = map[ReturnType]map[ReturnStatus][]ReturnStatus{
	ReturnTypeReturn: {
		ReturnStatusPending:  {ReturnStatusApproved},
		ReturnStatusApproved: {ReturnStatusCompleted},
	},
	ReturnTypeRTO: {
		ReturnStatusPending:   {ReturnStatusInspected},
		ReturnStatusInspected: {ReturnStatusApproved, ReturnStatusRejected},
		ReturnStatusApproved:  {ReturnStatusCompleted},
	},
}

// CanTransition reports whether a return of the given type may move from s to target.
func (s ReturnStatus) CanTransition(returnType ReturnType, target ReturnStatus) bool {
	for _, candidate := range returnTransitions[returnType][s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
