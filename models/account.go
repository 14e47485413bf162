package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBalanceOutOfRange = errors.New("remaining units must be between 0 and total units")

// Account is a prepaid lunch card. RemainingUnits is only changed by the
// deduction engine, and Version guards every such write.
type Account struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	HolderName      string     `gorm:"not null;index" json:"holderName"`
	Phone           string     `gorm:"index" json:"phone"`
	TotalUnits      int        `gorm:"not null" json:"totalUnits"`
	RemainingUnits  int        `gorm:"not null" json:"remainingUnits"`
	IsMember        bool       `gorm:"default:false" json:"memberStatus"`
	WeeklyRecurring bool       `gorm:"default:false" json:"weeklyRecurring"`
	DeliveryAddress string     `json:"deliveryAddress,omitempty"`
	ContactID       *uuid.UUID `gorm:"type:uuid;index" json:"contactId,omitempty"`
	PurchasedAt     time.Time  `gorm:"index;not null" json:"purchasedAt"`

	CreatedByUserID uuid.UUID  `gorm:"type:uuid;index" json:"createdBy"`
	LastRemindedAt  *time.Time `json:"-"`
	Version         int        `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.PurchasedAt.IsZero() {
		a.PurchasedAt = time.Now()
	}
	return a.CheckBalance()
}

// CheckBalance reports whether 0 <= remaining <= total holds.
func (a *Account) CheckBalance() error {
	if a.RemainingUnits < 0 || a.RemainingUnits > a.TotalUnits {
		return ErrBalanceOutOfRange
	}
	return nil
}
