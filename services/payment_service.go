package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// PaymentService records settlements against orders and flips them to PAID
// once the recorded payments cover the total exactly.
type PaymentService struct {
	db *gorm.DB
}

func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// PaymentRequest is one split of a settlement.
type PaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	Amount        int64  `json:"amount" binding:"required"`
}

func validatePaymentRequest(p PaymentRequest) error {
	if !models.ValidPaymentMethod(p.PaymentMethod) {
		return fmt.Errorf("%w: unknown payment method %q", utils.ErrValidation, p.PaymentMethod)
	}
	if p.Amount <= 0 {
		return fmt.Errorf("%w: payment amount must be positive", utils.ErrValidation)
	}
	return nil
}

// CreatePayment records a single payment on an ACTIVE order. When the
// cumulative payments reach the order total the order becomes PAID; going
// past the total is rejected.
func (s *PaymentService) CreatePayment(orderID uint, req PaymentRequest) (*models.Payment, error) {
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:       orderID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		CreatedAt:     time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusActive {
			return fmt.Errorf("%w: order %s is %s", utils.ErrInvalidState, order.OrderNumber, order.Status)
		}

		var paidSoFar int64
		if err := tx.Model(&models.Payment{}).
			Where("order_id = ?", orderID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paidSoFar).Error; err != nil {
			return err
		}
		if paidSoFar+req.Amount > order.TotalAmount {
			return fmt.Errorf("%w: payment of %s would exceed order total %s",
				utils.ErrAmountMismatch, utils.FormatRupees(req.Amount), utils.FormatRupees(order.TotalAmount))
		}

		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		if paidSoFar+req.Amount == order.TotalAmount {
			return markPaid(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePaymentsBatch records a split settlement atomically. The batch must
// sum to the order total exactly; otherwise nothing is written.
func (s *PaymentService) CreatePaymentsBatch(orderID uint, reqs []PaymentRequest) ([]models.Payment, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty payment batch", utils.ErrValidation)
	}
	var sum int64
	for _, r := range reqs {
		if err := validatePaymentRequest(r); err != nil {
			return nil, err
		}
		sum += r.Amount
	}

	var payments []models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusPaid {
			return fmt.Errorf("%w: order %s is already paid", utils.ErrInvalidState, order.OrderNumber)
		}
		if order.Status != models.OrderStatusActive {
			return fmt.Errorf("%w: order %s is %s", utils.ErrInvalidState, order.OrderNumber, order.Status)
		}
		if sum != order.TotalAmount {
			return fmt.Errorf("%w: batch total %s does not equal order total %s",
				utils.ErrAmountMismatch, utils.FormatRupees(sum), utils.FormatRupees(order.TotalAmount))
		}

		now := time.Now()
		for _, r := range reqs {
			p := models.Payment{
				OrderID:       orderID,
				PaymentMethod: r.PaymentMethod,
				Amount:        r.Amount,
				CreatedAt:     now,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			payments = append(payments, p)
		}

		return markPaid(tx, order)
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ReplaceOrderPayments corrects the payment breakdown of a PAID order:
// the existing payments are deleted and the replacement set inserted, which
// must still sum to the order total. Order status does not change.
func (s *PaymentService) ReplaceOrderPayments(orderID uint, reqs []PaymentRequest) ([]models.Payment, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: empty replacement set", utils.ErrValidation)
	}
	var sum int64
	for _, r := range reqs {
		if err := validatePaymentRequest(r); err != nil {
			return nil, err
		}
		sum += r.Amount
	}

	var payments []models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPaid {
			return fmt.Errorf("%w: order %s is not paid", utils.ErrInvalidState, order.OrderNumber)
		}
		if sum != order.TotalAmount {
			return fmt.Errorf("%w: replacement total %s does not equal order total %s",
				utils.ErrAmountMismatch, utils.FormatRupees(sum), utils.FormatRupees(order.TotalAmount))
		}

		if err := tx.Where("order_id = ?", orderID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, r := range reqs {
			p := models.Payment{
				OrderID:       orderID,
				PaymentMethod: r.PaymentMethod,
				Amount:        r.Amount,
				CreatedAt:     now,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			payments = append(payments, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// GetPaymentsForOrder returns an order's payments oldest first.
func (s *PaymentService) GetPaymentsForOrder(orderID uint) ([]models.Payment, error) {
	if _, err := lockOrder(s.db, orderID); err != nil {
		return nil, err
	}
	var payments []models.Payment
	err := s.db.Where("order_id = ?", orderID).Order("created_at asc, id asc").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// CashTotalForDate sums CASH payments created on the given calendar date
// (YYYY-MM-DD). The cash counter close uses it to derive the expected
// closing balance.
func (s *PaymentService) CashTotalForDate(date string) (int64, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0, fmt.Errorf("%w: bad date %q", utils.ErrValidation, date)
	}
	next := day.AddDate(0, 0, 1)

	var total int64
	err = s.db.Model(&models.Payment{}).
		Where("payment_method = ? AND created_at >= ? AND created_at < ?", models.PaymentMethodCash, day, next).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// lockOrder loads the order with a row lock, so concurrent settlements on
// the same order serialize and the running payment sum stays honest.
func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", utils.ErrNotFound, orderID)
		}
		return nil, err
	}
	return &order, nil
}

func markPaid(tx *gorm.DB, order *models.Order) error {
	order.Status = models.OrderStatusPaid
	order.UpdatedAt = time.Now()
	return tx.Save(order).Error
}
