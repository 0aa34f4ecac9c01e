package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrder(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to processing", OrderPending, OrderProcessing, true},
		{"processing to shipped", OrderProcessing, OrderShipped, true},
		{"shipped to delivered", OrderShipped, OrderDelivered, true},
		{"pending to cancelled", OrderPending, OrderCancelled, true},
		{"processing to cancelled", OrderProcessing, OrderCancelled, true},
		{"shipped to cancelled", OrderShipped, OrderCancelled, true},
		{"pending skips to shipped", OrderPending, OrderShipped, false},
		{"pending skips to delivered", OrderPending, OrderDelivered, false},
		{"processing back to pending", OrderProcessing, OrderPending, false},
		{"delivered is terminal", OrderDelivered, OrderCancelled, false},
		{"cancelled is terminal", OrderCancelled, OrderProcessing, false},
		{"delivered to delivered", OrderDelivered, OrderDelivered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionOrder(tt.from, tt.to))
		})
	}
}

func TestIsTerminalOrderStatus(t *testing.T) {
	assert.True(t, IsTerminalOrderStatus(OrderDelivered))
	assert.True(t, IsTerminalOrderStatus(OrderCancelled))
	assert.False(t, IsTerminalOrderStatus(OrderPending))
	assert.False(t, IsTerminalOrderStatus(OrderShipped))
}

func TestCanTransitionReturn(t *testing.T) {
	tests := []struct {
		name    string
		from    ReturnStatus
		to      ReturnStatus
		allowed bool
	}{
		{"requested to approved", ReturnRequested, ReturnApproved, true},
		{"requested to rejected", ReturnRequested, ReturnRejected, true},
		{"requested skips to completed", ReturnRequested, ReturnCompleted, false},
		{"approved to shipping sent", ReturnApproved, ReturnShippingSent, true},
		{"approved skips to completed", ReturnApproved, ReturnCompleted, true},
		{"shipping sent to in transit", ReturnShippingSent, ReturnInTransit, true},
		{"in transit skips to processing", ReturnInTransit, ReturnProcessing, true},
		{"delivered backward to in transit", ReturnDelivered, ReturnInTransit, false},
		{"approved back to requested", ReturnApproved, ReturnRequested, false},
		{"rejected is terminal", ReturnRejected, ReturnApproved, false},
		{"completed is terminal", ReturnCompleted, ReturnProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionReturn(tt.from, tt.to))
		})
	}
}

func TestValidReturnStatus(t *testing.T) {
	assert.True(t, ValidReturnStatus(ReturnRejected))
	assert.True(t, ValidReturnStatus(ReturnInTransit))
	assert.False(t, ValidReturnStatus(ReturnStatus("SHREDDED")))
}
