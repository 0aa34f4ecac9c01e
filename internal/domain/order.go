package domain

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions maps each status to its legal successors.
// DELIVERED and CANCELLED are terminal. CANCELLED is reachable from any
// non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminalOrderStatus reports whether no transition out of s is permitted.
func IsTerminalOrderStatus(s OrderStatus) bool {
	succ, ok := orderTransitions[s]
	return ok && len(succ) == 0
}

// CanTransitionOrder reports whether an order may move from current to target.
// The check is re-enforced at the point of mutation; client-supplied
// transitions are never trusted.
func CanTransitionOrder(current, target OrderStatus) bool {
	for _, s := range orderTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Order-related domain errors.
var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}

	// ErrStagedOrderNotFound signals that the staging record for a paid
	// session is gone (expired or lost) and the order was never created.
	// Distinct from the idempotent already-materialized case.
	ErrStagedOrderNotFound = &Error{Code: ENOTFOUND, Message: "Staged order not found for session"}

	ErrMissingOrderRef = &Error{Code: EINVALID, Message: "Order reference missing from session metadata"}
)
