package models

import "time"

// Order status values
const (
	OrderStatusActive   = "ACTIVE"
	OrderStatusPaid     = "PAID"
	OrderStatusCanceled = "CANCELED"
)

// Order owns its items and payments; both are deleted with the order.
// Monetary fields are paise and satisfy Subtotal + GSTAmount == TotalAmount
// after every recompute. They are frozen once the order leaves ACTIVE,
// except through the explicit admin-edit path.
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	OrderNumber  string      `gorm:"type:varchar(30);not null;uniqueIndex" json:"order_number"`
	TableNumber  int         `gorm:"not null" json:"table_number"`
	CustomerName string      `gorm:"type:varchar(255)" json:"customer_name,omitempty"`
	Subtotal     int64       `gorm:"not null;default:0" json:"subtotal"`
	GSTAmount    int64       `gorm:"not null;default:0" json:"gst_amount"`
	TotalAmount  int64       `gorm:"not null;default:0" json:"total_amount"`
	Status       string      `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems   []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	Payments     []Payment   `gorm:"foreignKey:OrderID" json:"payments"`
}

// IsFullyServed reports whether every item on the order has been served.
func (o *Order) IsFullyServed() bool {
	for i := range o.OrderItems {
		if !o.OrderItems[i].IsServed() {
			return false
		}
	}
	return len(o.OrderItems) > 0
}
