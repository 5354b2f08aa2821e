package enums

import "fmt"

// ReturnType distinguishes customer returns from carrier return-to-origin.
type ReturnType string

const (
	ReturnTypeReturn ReturnType = "return"
	ReturnTypeRTO    ReturnType = "rto"
)

var validReturnTypes = []ReturnType{ReturnTypeReturn, ReturnTypeRTO}

// IsValid reports whether the value matches the canonical return type enum.
func (t ReturnType) IsValid() bool {
	for _, candidate := range validReturnTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// OrderStatus returns the order side-branch status a return of this type implies.
func (t ReturnType) OrderStatus() OrderStatus {
	if t == ReturnTypeRTO {
		return OrderStatusRTO
	}
	return OrderStatusReturn
}

// ParseReturnType converts raw input into ReturnType.
func ParseReturnType(value string) (ReturnType, error) {
	for _, candidate := range validReturnTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return type %q", value)
}
