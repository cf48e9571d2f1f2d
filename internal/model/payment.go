package model

import "time"

// Payment is an immutable record of an outgoing payment.
// Payments are append-only: once written they are never updated or deleted.
type Payment struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"` // server-assigned at creation
	Phone     string    `json:"phone"`
	Amount    int64     `json:"amount"` // In minor units, always > 0
	AccountID int64     `json:"account_id"`
}

// PaymentRequest is the boundary shape of a payment: the amount arrives
// in major units and is converted to minor units exactly once
type PaymentRequest struct {
	Phone  string  `json:"phone" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"` // major units
}

// PaymentView renders a payment with the amount back in major units
type PaymentView struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	Phone  string    `json:"phone"`
	Amount float64   `json:"amount"` // major units
}

// NewPaymentView converts a stored payment to its outward representation
func NewPaymentView(p Payment) PaymentView {
	return PaymentView{
		ID:     p.ID,
		Date:   p.Date,
		Phone:  p.Phone,
		Amount: float64(p.Amount) / 100,
	}
}
