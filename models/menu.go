package models

import "time"

// MenuItem prices are stored in paise. Items referenced by orders are never
// hard-deleted; flip IsAvailable instead. Historical order items stay valid
// through their snapshot fields.
type MenuItem struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CategoryID   uint         `gorm:"not null" json:"category_id"`
	Category     MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name         string       `gorm:"type:varchar(255);not null" json:"name"`
	Price        int64        `gorm:"not null" json:"price"`
	IsAvailable  bool         `gorm:"not null;default:true" json:"is_available"`
	IsVegetarian bool         `gorm:"not null;default:false" json:"is_vegetarian"`
	IsBeverage   bool         `gorm:"not null;default:false" json:"is_beverage"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}
