package models

import "time"

// OrderItem snapshots Name, UnitPrice and IsBeverage from the menu item at
// order time, so later menu edits never alter historical orders.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order          Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID     uint      `gorm:"not null" json:"menu_item_id"`
	MenuItem       MenuItem  `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	UnitPrice      int64     `gorm:"not null" json:"unit_price"`
	IsBeverage     bool      `gorm:"not null;default:false" json:"is_beverage"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	QuantityServed int       `gorm:"not null;default:0" json:"quantity_served"`
	Subtotal       int64     `gorm:"not null" json:"subtotal"`
	IsParcel       bool      `gorm:"not null;default:false" json:"is_parcel"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// IsServed is derived, never stored: QuantityServed == Quantity.
func (oi *OrderItem) IsServed() bool {
	return oi.QuantityServed == oi.Quantity
}
