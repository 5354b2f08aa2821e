package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPacking   OrderStatus = "packing"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusReturn    OrderStatus = "return"
	OrderStatusRTO       OrderStatus = "rto"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusPacking,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusReturn,
	OrderStatusRTO,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// orderTransitions lists the permitted status moves. Entering shipped is
// deliberately absent: the ship operation is the only path into it.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:       {OrderStatusPacking},
	OrderStatusPacking:   {OrderStatusPacked},
	OrderStatusPacked:    {OrderStatusReturn, OrderStatusRTO},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusReturn, OrderStatusRTO},
	OrderStatusDelivered: {OrderStatusReturn, OrderStatusRTO},
}

// CanTransitionTo reports whether a plain status update from s to target is allowed.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// CanShip reports whether the shipment transition may begin from s.
func (s OrderStatus) CanShip() bool {
	return s == OrderStatusPacked
}
