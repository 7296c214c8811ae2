package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/masalabite/pos-backend/config"
	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// CashCounterService drives the daily till reconciliation:
// open -> closed_pending_verification -> verified, with reopen as the only
// way back. The unique index on the date column guarantees the
// one-counter-per-day invariant under concurrent opens.
type CashCounterService struct {
	db       *gorm.DB
	cfg      *config.Config
	payments *PaymentService
}

func NewCashCounterService(db *gorm.DB, cfg *config.Config, payments *PaymentService) *CashCounterService {
	return &CashCounterService{db: db, cfg: cfg, payments: payments}
}

const dateLayout = "2006-01-02"

// Open creates the counter row for a date. The opening balance is derived
// from the counted notes, never supplied directly.
func (s *CashCounterService) Open(date string, denoms models.Denominations, openedBy, notes string) (*models.DailyCashCounter, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", utils.ErrValidation, date)
	}
	today := time.Now()
	if day.After(today) && day.Format(dateLayout) != today.Format(dateLayout) {
		return nil, fmt.Errorf("%w: cannot open a counter for a future date", utils.ErrValidation)
	}
	if openedBy == "" {
		return nil, fmt.Errorf("%w: opened_by is required", utils.ErrValidation)
	}

	counter := &models.DailyCashCounter{
		Date:           date,
		OpeningBalance: denoms.Total(),
		Opening500:     denoms.Notes500,
		Opening200:     denoms.Notes200,
		Opening100:     denoms.Notes100,
		Opening50:      denoms.Notes50,
		Opening20:      denoms.Notes20,
		Opening10:      denoms.Notes10,
		OpenedBy:       openedBy,
		OpenedAt:       time.Now(),
		Notes:          notes,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.db.Create(counter).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: a counter already exists for %s", utils.ErrConflict, date)
		}
		return nil, err
	}
	return counter, nil
}

// Close counts the till and derives the reconciliation figures:
// expected_closing = opening_balance + cash payments that day,
// variance = closing_balance - expected_closing. A variance is recorded,
// never rejected.
func (s *CashCounterService) Close(date string, denoms models.Denominations, closedBy, notes string) (*models.DailyCashCounter, error) {
	if closedBy == "" {
		return nil, fmt.Errorf("%w: closed_by is required", utils.ErrValidation)
	}

	var counter models.DailyCashCounter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("date = ?", date).First(&counter).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no counter opened for %s", utils.ErrNotFound, date)
			}
			return err
		}
		if counter.ClosingBalance != nil {
			return fmt.Errorf("%w: counter for %s is already closed", utils.ErrInvalidState, date)
		}

		cashTotal, err := s.payments.CashTotalForDate(date)
		if err != nil {
			return err
		}

		closing := denoms.Total()
		expected := counter.OpeningBalance + cashTotal
		variance := closing - expected

		now := time.Now()
		counter.ClosingBalance = &closing
		counter.ExpectedClosing = &expected
		counter.Variance = &variance
		counter.Closing500 = denoms.Notes500
		counter.Closing200 = denoms.Notes200
		counter.Closing100 = denoms.Notes100
		counter.Closing50 = denoms.Notes50
		counter.Closing20 = denoms.Notes20
		counter.Closing10 = denoms.Notes10
		counter.ClosedBy = closedBy
		counter.ClosedAt = &now
		if notes != "" {
			counter.Notes = notes
		}
		counter.UpdatedAt = now
		return tx.Save(&counter).Error
	})
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// Verify is the owner's sign-off on a closed counter. Terminal.
func (s *CashCounterService) Verify(counterID uint, ownerPassword, verifiedBy string) (*models.DailyCashCounter, error) {
	if err := s.checkOwnerPassword(ownerPassword); err != nil {
		return nil, err
	}

	var counter models.DailyCashCounter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&counter, counterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: cash counter %d", utils.ErrNotFound, counterID)
			}
			return err
		}
		if counter.ClosingBalance == nil {
			return fmt.Errorf("%w: counter for %s is not closed yet", utils.ErrInvalidState, counter.Date)
		}
		if counter.IsVerified {
			return fmt.Errorf("%w: counter for %s is already verified", utils.ErrInvalidState, counter.Date)
		}

		now := time.Now()
		counter.IsVerified = true
		counter.VerifiedBy = verifiedBy
		counter.VerifiedAt = &now
		counter.UpdatedAt = now
		return tx.Save(&counter).Error
	})
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// Reopen clears every closing-side field in place, reverting the row to the
// open state. Only allowed before verification; verified is terminal.
func (s *CashCounterService) Reopen(counterID uint, ownerPassword string) (*models.DailyCashCounter, error) {
	if err := s.checkOwnerPassword(ownerPassword); err != nil {
		return nil, err
	}

	var counter models.DailyCashCounter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&counter, counterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: cash counter %d", utils.ErrNotFound, counterID)
			}
			return err
		}
		if counter.IsVerified {
			return fmt.Errorf("%w: counter for %s is verified and cannot be reopened", utils.ErrInvalidState, counter.Date)
		}
		if counter.ClosingBalance == nil {
			return fmt.Errorf("%w: counter for %s is not closed", utils.ErrInvalidState, counter.Date)
		}

		counter.ClosingBalance = nil
		counter.ExpectedClosing = nil
		counter.Variance = nil
		counter.Closing500 = 0
		counter.Closing200 = 0
		counter.Closing100 = 0
		counter.Closing50 = 0
		counter.Closing20 = 0
		counter.Closing10 = 0
		counter.ClosedBy = ""
		counter.ClosedAt = nil
		counter.VerifiedBy = ""
		counter.VerifiedAt = nil
		counter.UpdatedAt = time.Now()

		// Save skips zero/nil fields on updates; select everything so the
		// cleared columns are actually written.
		return tx.Model(&counter).Select("*").Updates(&counter).Error
	})
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// TodayCounter is the answer to "where does my till stand right now".
// When no counter is open yet, SuggestedOpening carries the most recent
// closing balance forward.
type TodayCounter struct {
	Counter          *models.DailyCashCounter `json:"counter,omitempty"`
	IsOpened         bool                     `json:"is_opened"`
	SuggestedOpening int64                    `json:"suggested_opening"`
}

// GetToday returns the current day's counter, or a suggested opening
// balance when none has been opened yet.
func (s *CashCounterService) GetToday() (*TodayCounter, error) {
	today := time.Now().Format(dateLayout)

	var counter models.DailyCashCounter
	err := s.db.Where("date = ?", today).First(&counter).Error
	if err == nil {
		return &TodayCounter{Counter: &counter, IsOpened: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var prior models.DailyCashCounter
	err = s.db.Where("date < ? AND closing_balance IS NOT NULL", today).
		Order("date desc").
		First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &TodayCounter{SuggestedOpening: 0}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TodayCounter{SuggestedOpening: *prior.ClosingBalance}, nil
}

// CounterHistory is a page of counters plus summary statistics.
type CounterHistory struct {
	Counters        []models.DailyCashCounter `json:"counters"`
	Total           int64                     `json:"total"`
	AverageVariance float64                   `json:"average_variance"`
	UnverifiedCount int64                     `json:"unverified_count"`
}

// History returns counters newest first with aggregate stats over the whole
// table: average variance across closed counters and how many closed ones
// still await verification.
func (s *CashCounterService) History(limit, offset int) (*CounterHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	h := &CounterHistory{}
	if err := s.db.Model(&models.DailyCashCounter{}).Count(&h.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Order("date desc").Limit(limit).Offset(offset).Find(&h.Counters).Error; err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := s.db.Model(&models.DailyCashCounter{}).
		Where("variance IS NOT NULL").
		Select("AVG(variance)").
		Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg.Valid {
		h.AverageVariance = avg.Float64
	}

	if err := s.db.Model(&models.DailyCashCounter{}).
		Where("closing_balance IS NOT NULL AND is_verified = ?", false).
		Count(&h.UnverifiedCount).Error; err != nil {
		return nil, err
	}
	return h, nil
}

func (s *CashCounterService) checkOwnerPassword(password string) error {
	if s.cfg.OwnerPasswordHash == "" {
		return fmt.Errorf("%w: owner credential is not configured", utils.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OwnerPasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("%w: owner password does not match", utils.ErrUnauthorized)
	}
	return nil
}
