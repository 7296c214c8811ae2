package models

import "time"

// Cash counter states, derived from the stored fields and never persisted.
const (
	CounterStatusOpen     = "open"
	CounterStatusClosed   = "closed_pending_verification"
	CounterStatusVerified = "verified"
)

// Denominations is a physical note count for the fixed denomination set.
type Denominations struct {
	Notes500 int `json:"notes_500"`
	Notes200 int `json:"notes_200"`
	Notes100 int `json:"notes_100"`
	Notes50  int `json:"notes_50"`
	Notes20  int `json:"notes_20"`
	Notes10  int `json:"notes_10"`
}

// Total returns the cash value of the counted notes in paise.
func (d Denominations) Total() int64 {
	rupees := int64(d.Notes500)*500 +
		int64(d.Notes200)*200 +
		int64(d.Notes100)*100 +
		int64(d.Notes50)*50 +
		int64(d.Notes20)*20 +
		int64(d.Notes10)*10
	return rupees * 100
}

// DailyCashCounter is the till-reconciliation record for one calendar date.
// At most one row exists per date (unique index on Date). Balances are paise.
// Variance = ClosingBalance - ExpectedClosing; positive is surplus.
type DailyCashCounter struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Date            string `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	OpeningBalance  int64  `gorm:"not null" json:"opening_balance"`
	ClosingBalance  *int64 `json:"closing_balance,omitempty"`
	ExpectedClosing *int64 `json:"expected_closing,omitempty"`
	Variance        *int64 `json:"variance,omitempty"`

	Opening500 int `gorm:"not null;default:0" json:"opening_500"`
	Opening200 int `gorm:"not null;default:0" json:"opening_200"`
	Opening100 int `gorm:"not null;default:0" json:"opening_100"`
	Opening50  int `gorm:"not null;default:0" json:"opening_50"`
	Opening20  int `gorm:"not null;default:0" json:"opening_20"`
	Opening10  int `gorm:"not null;default:0" json:"opening_10"`

	Closing500 int `gorm:"not null;default:0" json:"closing_500"`
	Closing200 int `gorm:"not null;default:0" json:"closing_200"`
	Closing100 int `gorm:"not null;default:0" json:"closing_100"`
	Closing50  int `gorm:"not null;default:0" json:"closing_50"`
	Closing20  int `gorm:"not null;default:0" json:"closing_20"`
	Closing10  int `gorm:"not null;default:0" json:"closing_10"`

	OpenedBy   string     `gorm:"type:varchar(255);not null" json:"opened_by"`
	ClosedBy   string     `gorm:"type:varchar(255)" json:"closed_by,omitempty"`
	VerifiedBy string     `gorm:"type:varchar(255)" json:"verified_by,omitempty"`
	OpenedAt   time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	IsVerified bool       `gorm:"not null;default:false" json:"is_verified"`
	Notes      string     `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// Status is a pure function of (ClosingBalance, IsVerified).
func (c *DailyCashCounter) Status() string {
	switch {
	case c.IsVerified:
		return CounterStatusVerified
	case c.ClosingBalance != nil:
		return CounterStatusClosed
	default:
		return CounterStatusOpen
	}
}

// OpeningDenominations returns the stored opening note counts.
func (c *DailyCashCounter) OpeningDenominations() Denominations {
	return Denominations{
		Notes500: c.Opening500,
		Notes200: c.Opening200,
		Notes100: c.Opening100,
		Notes50:  c.Opening50,
		Notes20:  c.Opening20,
		Notes10:  c.Opening10,
	}
}

// ClosingDenominations returns the stored closing note counts.
func (c *DailyCashCounter) ClosingDenominations() Denominations {
	return Denominations{
		Notes500: c.Closing500,
		Notes200: c.Closing200,
		Notes100: c.Closing100,
		Notes50:  c.Closing50,
		Notes20:  c.Closing20,
		Notes10:  c.Closing10,
	}
}
