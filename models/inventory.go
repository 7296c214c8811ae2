package models

import "time"

// Inventory transaction types
const (
	TxTypePurchase   = "PURCHASE"
	TxTypeUsage      = "USAGE"
	TxTypeAdjustment = "ADJUSTMENT"
)

// InventoryItem tracks a stock position. CurrentQuantity never goes negative;
// the transaction layer enforces that, not the storage layer. Quantities are
// fractional (kg, litres); CostPerUnit is paise.
type InventoryItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Unit            string    `gorm:"type:varchar(20);not null" json:"unit"`
	CurrentQuantity float64   `gorm:"not null;default:0" json:"current_quantity"`
	MinThreshold    float64   `gorm:"not null;default:0" json:"min_threshold"`
	CostPerUnit     *int64    `json:"cost_per_unit,omitempty"`
	Category        string    `gorm:"type:varchar(100)" json:"category"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// IsLowStock is derived on read, never persisted.
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentQuantity < i.MinThreshold
}

// InventoryTransaction is an append-only audit row. Previous and new
// quantities are snapshotted so the ledger stays self-verifying even if
// CurrentQuantity is later corrupted.
type InventoryTransaction struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	InventoryItemID  uint          `gorm:"not null;index" json:"inventory_item_id"`
	InventoryItem    InventoryItem `gorm:"foreignKey:InventoryItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Type             string        `gorm:"type:varchar(20);not null" json:"type"`
	Quantity         float64       `gorm:"not null" json:"quantity"`
	PreviousQuantity float64       `gorm:"not null" json:"previous_quantity"`
	NewQuantity      float64       `gorm:"not null" json:"new_quantity"`
	RecordedBy       string        `gorm:"type:varchar(255);not null" json:"recorded_by"`
	Notes            string        `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time     `gorm:"not null" json:"created_at"`
}
