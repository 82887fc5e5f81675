package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtConfig holds a user's overall debt target (one-to-one with User).
// TotalAmount is the full sum to be paid off, DefaultQuota the preferred
// recurring installment size. Both are strictly positive; UpdatedAt is
// maintained by GORM on every write.
type DebtConfig struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint            `gorm:"uniqueIndex;not null"` // one configuration per user
	TotalAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DefaultQuota decimal.Decimal `gorm:"type:numeric(14,2);not null"`
}
