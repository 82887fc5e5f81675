package models

import (
	"time"
)

// User model. Identity is the email address used at sign-up.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Email          string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	Payments       []Payment
	DebtConfig     *DebtConfig `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	RoleID         *uint       `gorm:"index"`
	Role           Role        `gorm:"foreignKey:RoleID;references:ID"`
}
