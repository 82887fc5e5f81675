package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a single recorded installment payment. Rows are append-only:
// there is no update or delete path once a payment is created.
type Payment struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	PublicID  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"` // opaque identifier exposed by the API
	UserID    uint            `gorm:"index;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Concept   string          `gorm:"size:100"`
}
