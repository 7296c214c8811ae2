package models

import "time"

// Payment methods
const (
	PaymentMethodCash = "CASH"
	PaymentMethodUPI  = "UPI"
	PaymentMethodCard = "CARD"
)

// Payment is one settlement against an order. An order may carry several
// (split payment); once the order is PAID their amounts sum to the order
// total exactly.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderID       uint      `gorm:"not null;index" json:"order_id"`
	Order         Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	PaymentMethod string    `gorm:"type:varchar(10);not null" json:"payment_method"`
	Amount        int64     `gorm:"not null" json:"amount"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard:
		return true
	}
	return false
}
