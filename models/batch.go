package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BatchOpen     = "open"
	BatchConsumed = "consumed"
	BatchExpired  = "expired"
)

// BatchTransaction is the server-issued token that lets exactly one
// reservation unit mutate balances and send the batch notification.
type BatchTransaction struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	StaffID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"staffId"`
	Status     string     `gorm:"type:varchar(10);not null;index" json:"status"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	ConsumedBy *uuid.UUID `gorm:"type:uuid" json:"consumedBy,omitempty"` // reservation id

	// Set by the committing unit; later units must match them.
	PaymentMethod   PaymentMethod `gorm:"type:varchar(20)" json:"paymentMethod,omitempty"`
	AccountID       *uuid.UUID    `gorm:"type:uuid" json:"accountId,omitempty"`
	BufferAccountID *uuid.UUID    `gorm:"type:uuid" json:"bufferAccountId,omitempty"`
	TotalUnits      int           `gorm:"not null;default:0" json:"totalUnits"`
	UnitsBooked     int           `gorm:"not null;default:0" json:"unitsBooked"`

	CreatedAt time.Time `json:"createdAt"`
}

// Covers reports whether a later unit paid with method from the given
// accounts belongs to the committed batch.
func (b *BatchTransaction) Covers(method PaymentMethod, primary, buffer *uuid.UUID) bool {
	return b.PaymentMethod == method && sameID(b.AccountID, primary) && sameID(b.BufferAccountID, buffer)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (b *BatchTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BatchOpen
	}
	return
}
