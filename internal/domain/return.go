package domain

// ReturnStatus enumerates the returns workflow states.
type ReturnStatus string

const (
	ReturnRequested    ReturnStatus = "REQUESTED"
	ReturnApproved     ReturnStatus = "APPROVED"
	ReturnRejected     ReturnStatus = "REJECTED"
	ReturnShippingSent ReturnStatus = "RETURN_SHIPPING_SENT"
	ReturnInTransit    ReturnStatus = "RETURN_IN_TRANSIT"
	ReturnDelivered    ReturnStatus = "RETURN_DELIVERED"
	ReturnProcessing   ReturnStatus = "PROCESSING"
	ReturnCompleted    ReturnStatus = "COMPLETED"
)

// RefundStatus enumerates the refund sub-states of a return.
type RefundStatus string

const (
	RefundPending    RefundStatus = "PENDING"
	RefundProcessing RefundStatus = "PROCESSING"
	RefundCompleted  RefundStatus = "COMPLETED"
	RefundFailed     RefundStatus = "FAILED"
)

// returnRank orders the post-approval tracking chain. The tracking sub-states
// are skippable: an admin may jump any number of steps forward (e.g. straight
// from APPROVED to COMPLETED via refund) but never backward.
var returnRank = map[ReturnStatus]int{
	ReturnRequested:    0,
	ReturnApproved:     1,
	ReturnShippingSent: 2,
	ReturnInTransit:    3,
	ReturnDelivered:    4,
	ReturnProcessing:   5,
	ReturnCompleted:    6,
}

// ValidReturnStatus reports whether s is a known return status.
func ValidReturnStatus(s ReturnStatus) bool {
	if s == ReturnRejected {
		return true
	}
	_, ok := returnRank[s]
	return ok
}

// IsTerminalReturnStatus reports whether no transition out of s is permitted.
func IsTerminalReturnStatus(s ReturnStatus) bool {
	return s == ReturnRejected || s == ReturnCompleted
}

// CanTransitionReturn reports whether a return may move from current to
// target. REQUESTED resolves only to APPROVED or REJECTED; after approval the
// chain is forward-only with skips allowed.
func CanTransitionReturn(current, target ReturnStatus) bool {
	if IsTerminalReturnStatus(current) {
		return false
	}
	if current == ReturnRequested {
		return target == ReturnApproved || target == ReturnRejected
	}
	cr, ok := returnRank[current]
	if !ok {
		return false
	}
	tr, ok := returnRank[target]
	if !ok {
		return false
	}
	return tr > cr
}

// Return-related domain errors.
var (
	ErrReturnNotFound = &Error{Code: ENOTFOUND, Message: "Return not found"}

	// ErrReturnExists enforces the at-most-one-return-per-order-item rule.
	ErrReturnExists = &Error{Code: ECONFLICT, Message: "A return already exists for this order item"}

	ErrReturnNotApproved = &Error{Code: EINVALID, Message: "Return must be approved before a refund can be processed"}
	ErrRefundNotPending  = &Error{Code: ECONFLICT, Message: "Refund has already been initiated for this return"}
	ErrMissingPaymentRef = &Error{Code: EPAYMENT, Message: "Order has no recorded payment reference to refund against"}
)
