package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/masalabite/pos-backend/config"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// orderNumberRetries bounds the recount-and-retry loop when two requests
// race for the same daily sequence number. The unique index on order_number
// is the real arbiter; the retry just recounts and tries again.
const orderNumberRetries = 3

// OrderService owns the order aggregate: creation, totals, item edits,
// served-quantity tracking and cancellation.
type OrderService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	return &OrderService{db: db, cfg: cfg}
}

// OrderItemRequest is one requested line on an order.
type OrderItemRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	IsParcel   bool   `json:"is_parcel"`
	Notes      string `json:"notes"`
}

// validateItemRequests rejects empty requests, non-positive quantities and
// repeated menu items. One line per menu item; callers merge quantities.
func validateItemRequests(items []OrderItemRequest) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order needs at least one item", utils.ErrValidation)
	}
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", utils.ErrValidation)
		}
		if seen[it.MenuItemID] {
			return fmt.Errorf("%w: menu item %d appears on more than one line", utils.ErrValidation, it.MenuItemID)
		}
		seen[it.MenuItemID] = true
	}
	return nil
}

// CreateOrder validates the request, snapshots the menu items into order
// items, computes subtotal/GST/total in paise and allocates the daily order
// number. The whole write happens in one transaction.
func (s *OrderService) CreateOrder(tableNumber int, customerName string, items []OrderItemRequest) (*models.Order, error) {
	if tableNumber < 1 || tableNumber > s.cfg.MaxTables {
		return nil, fmt.Errorf("%w: table_number must be between 1 and %d", utils.ErrValidation, s.cfg.MaxTables)
	}
	if err := validateItemRequests(items); err != nil {
		return nil, err
	}

	var order *models.Order
	var err error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		order, err = s.createOnce(tableNumber, customerName, items)
		if err == nil {
			return order, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		// Lost the count race to a concurrent insert; recount and retry.
	}
	return nil, fmt.Errorf("%w: could not allocate an order number", utils.ErrConflict)
}

func (s *OrderService) createOnce(tableNumber int, customerName string, items []OrderItemRequest) (*models.Order, error) {
	now := time.Now()
	order := &models.Order{
		TableNumber:  tableNumber,
		CustomerName: customerName,
		Status:       models.OrderStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			var menu models.MenuItem
			if err := tx.First(&menu, it.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: menu item %d", utils.ErrNotFound, it.MenuItemID)
				}
				return err
			}
			if !menu.IsAvailable {
				return fmt.Errorf("%w: menu item %q is not available", utils.ErrValidation, menu.Name)
			}

			order.OrderItems = append(order.OrderItems, models.OrderItem{
				MenuItemID: menu.ID,
				Name:       menu.Name,
				UnitPrice:  menu.Price,
				IsBeverage: menu.IsBeverage,
				Quantity:   it.Quantity,
				Subtotal:   int64(it.Quantity) * menu.Price,
				IsParcel:   it.IsParcel,
				Notes:      it.Notes,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		s.applyTotals(order)

		number, err := s.nextOrderNumber(tx, now)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// nextOrderNumber produces ORD-YYYYMMDD-NNNN where the sequence restarts at
// 1 every calendar day.
func (s *OrderService) nextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "ORD-" + now.Format("20060102")
	var count int64
	if err := tx.Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"-%").
		Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

func (s *OrderService) applyTotals(order *models.Order) {
	var subtotal int64
	for i := range order.OrderItems {
		subtotal += order.OrderItems[i].Subtotal
	}
	order.Subtotal = subtotal
	order.GSTAmount = utils.GSTAmount(subtotal, s.cfg.GSTRateBasisPoints)
	order.TotalAmount = order.Subtotal + order.GSTAmount
}

// GetOrder loads an order with its items and payments.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("OrderItems").Preload("Payments").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %d", utils.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns orders newest first, optionally filtered by status.
func (s *OrderService) ListOrders(status string) ([]models.Order, error) {
	q := s.db.Preload("OrderItems").Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderItems replaces the item set of an order and recomputes totals
// from scratch. Items still present (matched by menu item) keep their served
// quantity, clamped to the new quantity; removed items are deleted; new
// items start unserved. PAID orders may only be edited with adminOverride
// (a corrective edit); CANCELED orders never.
func (s *OrderService) UpdateOrderItems(orderID uint, items []OrderItemRequest, adminOverride bool) (*models.Order, error) {
	if err := validateItemRequests(items); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("OrderItems").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", utils.ErrNotFound, orderID)
			}
			return err
		}

		switch order.Status {
		case models.OrderStatusCanceled:
			return fmt.Errorf("%w: order %s is canceled", utils.ErrInvalidState, order.OrderNumber)
		case models.OrderStatusPaid:
			if !adminOverride {
				return fmt.Errorf("%w: order %s is already paid", utils.ErrInvalidState, order.OrderNumber)
			}
		}

		servedByMenuItem := make(map[uint]int, len(order.OrderItems))
		for _, oi := range order.OrderItems {
			servedByMenuItem[oi.MenuItemID] = oi.QuantityServed
		}

		// Replace the child set within the owning transaction; the
		// aggregate deletes its own children rather than leaning on a
		// cascade.
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}

		now := time.Now()
		order.OrderItems = nil
		for _, it := range items {
			var menu models.MenuItem
			if err := tx.First(&menu, it.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: menu item %d", utils.ErrNotFound, it.MenuItemID)
				}
				return err
			}

			served := servedByMenuItem[menu.ID]
			if served > it.Quantity {
				served = it.Quantity
			}

			item := models.OrderItem{
				OrderID:        order.ID,
				MenuItemID:     menu.ID,
				Name:           menu.Name,
				UnitPrice:      menu.Price,
				IsBeverage:     menu.IsBeverage,
				Quantity:       it.Quantity,
				QuantityServed: served,
				Subtotal:       int64(it.Quantity) * menu.Price,
				IsParcel:       it.IsParcel,
				Notes:          it.Notes,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			order.OrderItems = append(order.OrderItems, item)
		}

		s.applyTotals(&order)
		order.UpdatedAt = now
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder marks an order CANCELED. Terminal: nothing on the order may
// change afterwards. A fully paid order cannot be canceled here; that goes
// through a void/refund correction instead.
func (s *OrderService) CancelOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Payments").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", utils.ErrNotFound, orderID)
			}
			return err
		}

		if order.Status == models.OrderStatusCanceled {
			return fmt.Errorf("%w: order %s is already canceled", utils.ErrInvalidState, order.OrderNumber)
		}

		var paid int64
		for _, p := range order.Payments {
			paid += p.Amount
		}
		if order.Status == models.OrderStatusPaid || (order.TotalAmount > 0 && paid >= order.TotalAmount) {
			return fmt.Errorf("%w: order %s is fully paid, void it instead", utils.ErrInvalidState, order.OrderNumber)
		}

		order.Status = models.OrderStatusCanceled
		order.UpdatedAt = time.Now()
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetServedQuantity sets the absolute served count on an order item.
// 0 <= served <= quantity always holds; decreasing the count is an explicit
// admin correction.
func (s *OrderService) SetServedQuantity(orderItemID uint, served int, adminCorrection bool) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&item, orderItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order item %d", utils.ErrNotFound, orderItemID)
			}
			return err
		}

		var order models.Order
		if err := tx.First(&order, item.OrderID).Error; err != nil {
			return err
		}
		if order.Status == models.OrderStatusCanceled {
			return fmt.Errorf("%w: order %s is canceled", utils.ErrInvalidState, order.OrderNumber)
		}

		if served < 0 || served > item.Quantity {
			return fmt.Errorf("%w: served quantity must be between 0 and %d", utils.ErrValidation, item.Quantity)
		}
		if served < item.QuantityServed && !adminCorrection {
			return fmt.Errorf("%w: served quantity can only decrease via an admin correction", utils.ErrValidation)
		}

		item.QuantityServed = served
		item.UpdatedAt = time.Now()
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// lockForUpdate takes a row lock on the queried rows so read-then-write
// transitions serialize under InnoDB's snapshot reads. sqlite has no
// FOR UPDATE; its single writer already serializes transactions.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isDuplicateKey recognises a unique-constraint violation from the mysql or
// sqlite drivers.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
