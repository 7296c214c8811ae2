package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// InventoryService keeps the stock ledger. Every mutation is one
// transaction: the item row update and the append-only audit row either both
// land or neither does.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// RecordPurchase adds purchased stock to an item.
func (s *InventoryService) RecordPurchase(itemID uint, quantity float64, recordedBy, notes string) (*models.InventoryTransaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: purchase quantity must be positive", utils.ErrValidation)
	}
	return s.apply(itemID, recordedBy, func(item *models.InventoryItem) (*models.InventoryTransaction, error) {
		prev := item.CurrentQuantity
		item.CurrentQuantity = prev + quantity
		return &models.InventoryTransaction{
			Type:             models.TxTypePurchase,
			Quantity:         quantity,
			PreviousQuantity: prev,
			NewQuantity:      item.CurrentQuantity,
			Notes:            notes,
		}, nil
	})
}

// RecordUsage consumes stock. Stock never goes negative; an over-consuming
// usage fails whole, leaving the item untouched.
func (s *InventoryService) RecordUsage(itemID uint, quantity float64, recordedBy, notes string) (*models.InventoryTransaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: usage quantity must be positive", utils.ErrValidation)
	}
	return s.apply(itemID, recordedBy, func(item *models.InventoryItem) (*models.InventoryTransaction, error) {
		prev := item.CurrentQuantity
		if quantity > prev {
			return nil, fmt.Errorf("%w: cannot use %.3f %s of %q, only %.3f in stock",
				utils.ErrInsufficientStock, quantity, item.Unit, item.Name, prev)
		}
		item.CurrentQuantity = prev - quantity
		return &models.InventoryTransaction{
			Type:             models.TxTypeUsage,
			Quantity:         -quantity,
			PreviousQuantity: prev,
			NewQuantity:      item.CurrentQuantity,
			Notes:            notes,
		}, nil
	})
}

// RecordAdjustment sets the absolute quantity after a physical count.
// The stored transaction quantity is the signed delta from the prior level.
func (s *InventoryService) RecordAdjustment(itemID uint, newQuantity float64, recordedBy, notes string) (*models.InventoryTransaction, error) {
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: adjusted quantity cannot be negative", utils.ErrValidation)
	}
	return s.apply(itemID, recordedBy, func(item *models.InventoryItem) (*models.InventoryTransaction, error) {
		prev := item.CurrentQuantity
		item.CurrentQuantity = newQuantity
		return &models.InventoryTransaction{
			Type:             models.TxTypeAdjustment,
			Quantity:         newQuantity - prev,
			PreviousQuantity: prev,
			NewQuantity:      newQuantity,
			Notes:            notes,
		}, nil
	})
}

func (s *InventoryService) apply(itemID uint, recordedBy string, mutate func(*models.InventoryItem) (*models.InventoryTransaction, error)) (*models.InventoryTransaction, error) {
	if recordedBy == "" {
		return nil, fmt.Errorf("%w: recorded_by is required", utils.ErrValidation)
	}

	var txn *models.InventoryTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var item models.InventoryItem
		if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: inventory item %d", utils.ErrNotFound, itemID)
			}
			return err
		}

		t, err := mutate(&item)
		if err != nil {
			return err
		}

		now := time.Now()
		item.UpdatedAt = now
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		t.InventoryItemID = item.ID
		t.RecordedBy = recordedBy
		t.CreatedAt = now
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetItem loads one inventory item.
func (s *InventoryService) GetItem(itemID uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := s.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory item %d", utils.ErrNotFound, itemID)
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns active inventory items by name.
func (s *InventoryService) ListItems() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := s.db.Where("is_active = ?", true).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LowStock returns the active items currently under their threshold.
func (s *InventoryService) LowStock() ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.Where("is_active = ? AND current_quantity < min_threshold", true).
		Order("name asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListTransactions returns an item's ledger newest first.
func (s *InventoryService) ListTransactions(itemID uint, limit int) ([]models.InventoryTransaction, error) {
	if _, err := s.GetItem(itemID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txns []models.InventoryTransaction
	err := s.db.Where("inventory_item_id = ?", itemID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
