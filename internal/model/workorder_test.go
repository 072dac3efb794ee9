package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{OrderStatusOpen, OrderStatusInProgress, true},
		{OrderStatusOpen, OrderStatusAwaitingParts, true},
		{OrderStatusOpen, OrderStatusFinalized, true},
		{OrderStatusOpen, OrderStatusCancelled, true},
		{OrderStatusInProgress, OrderStatusAwaitingParts, true},
		{OrderStatusAwaitingParts, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusFinalized, true},
		{OrderStatusInProgress, OrderStatusOpen, false},
		{OrderStatusAwaitingParts, OrderStatusOpen, false},
		{OrderStatusFinalized, OrderStatusOpen, false},
		{OrderStatusFinalized, OrderStatusInProgress, false},
		{OrderStatusFinalized, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusOpen, false},
		{OrderStatusCancelled, OrderStatusFinalized, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}

	// Staying put is never an error.
	for status := range validTransitions {
		assert.True(t, ValidTransition(status, status), "%s -> itself", status)
	}
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(OrderStatusFinalized))
	assert.True(t, TerminalStatus(OrderStatusCancelled))
	assert.False(t, TerminalStatus(OrderStatusOpen))
	assert.False(t, TerminalStatus(OrderStatusInProgress))
	assert.False(t, TerminalStatus(OrderStatusAwaitingParts))
}

func TestWorkOrderTotals(t *testing.T) {
	order := &WorkOrder{
		LaborCost: decimal.NewFromInt(150),
		Discount:  decimal.NewFromInt(10),
		Items: []WorkOrderItem{
			{Subtotal: decimal.NewFromInt(90)},
			{Subtotal: decimal.NewFromInt(60)},
		},
		Payments: []Payment{
			{Amount: decimal.NewFromInt(100)},
			{Amount: decimal.NewFromInt(50)},
		},
	}

	assert.True(t, order.ItemsTotal().Equal(decimal.NewFromInt(150)))
	assert.True(t, order.Total().Equal(decimal.NewFromInt(290)))
	assert.True(t, order.TotalPaid().Equal(decimal.NewFromInt(150)))
	assert.True(t, order.Balance().Equal(decimal.NewFromInt(140)))
}

func TestWorkOrderTotalsEmpty(t *testing.T) {
	order := &WorkOrder{}
	assert.True(t, order.Total().Equal(decimal.Zero))
	assert.True(t, order.Balance().Equal(decimal.Zero))
}

func TestValidPaymentMethod(t *testing.T) {
	for _, method := range []string{"DEBIT_CARD", "CREDIT_CARD", "CASH", "PIX", "CHEQUE", "OTHER"} {
		assert.True(t, ValidPaymentMethod(method), method)
	}
	assert.False(t, ValidPaymentMethod("BARTER"))
	assert.False(t, ValidPaymentMethod(""))
}
