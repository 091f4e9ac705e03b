package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusAwaitingVerification OrderStatus = "AWAITING_VERIFICATION"
	OrderStatusInProgress           OrderStatus = "IN_PROGRESS"
	OrderStatusDelivered            OrderStatus = "DELIVERED"
	OrderStatusCancelled            OrderStatus = "CANCELLED"
	OrderStatusRefunded             OrderStatus = "REFUNDED"
	OrderStatusReturned             OrderStatus = "RETURNED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingVerification,
	OrderStatusInProgress,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusReturned,
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingVerification: {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress:           {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:            {OrderStatusReturned, OrderStatusRefunded},
	OrderStatusCancelled:            {OrderStatusRefunded},
	OrderStatusReturned:             {OrderStatusRefunded},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[s]) == 0
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
