package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurchaseStateHelpers(t *testing.T) {
	p := Purchase{PaymentStatus: PaymentStatusPending}
	assert.True(t, p.Pending())
	assert.False(t, p.Completed())

	p.PaymentStatus = PaymentStatusCompleted
	assert.False(t, p.Pending())
	assert.True(t, p.Completed())

	p.PaymentStatus = PaymentStatusFailed
	assert.False(t, p.Pending())
	assert.False(t, p.Completed())
}

func TestPurchaseTotalTickets(t *testing.T) {
	p := Purchase{}
	assert.Equal(t, 0, p.TotalTickets())

	p.Items = []LineItem{
		{TicketTypeID: "tt1", Quantity: 2},
		{TicketTypeID: "tt2", Quantity: 1},
	}
	assert.Equal(t, 3, p.TotalTickets())
}
