package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MealType string

const (
	MealDineIn   MealType = "DineIn"
	MealToGo     MealType = "ToGo"
	MealDelivery MealType = "Delivery"
)

func (m MealType) Valid() bool {
	switch m {
	case MealDineIn, MealToGo, MealDelivery:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PayCash             PaymentMethod = "Cash"
	PayCheck            PaymentMethod = "Check"
	PaySplitCashCheck   PaymentMethod = "SplitCashCheck"
	PayCard             PaymentMethod = "CardPayment"
	PayAccountDeduction PaymentMethod = "AccountDeduction"
	PayComplimentary    PaymentMethod = "Complimentary"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PayCash, PayCheck, PaySplitCashCheck, PayCard, PayAccountDeduction, PayComplimentary:
		return true
	}
	return false
}

// Free reports whether reservations paid this way always carry a zero amount.
func (p PaymentMethod) Free() bool {
	return p == PayAccountDeduction || p == PayComplimentary
}

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusReserved  ReservationStatus = "Reserved"
	StatusFulfilled ReservationStatus = "Fulfilled"
	StatusCancelled ReservationStatus = "Cancelled"
)

var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:  {StatusReserved, StatusCancelled},
	StatusReserved: {StatusFulfilled, StatusCancelled},
}

// CanTransition reports whether a reservation may move from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation is one meal unit claimed for one date.
type Reservation struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReferenceCode string    `gorm:"uniqueIndex;not null" json:"referenceCode"`

	DisplayName   string          `gorm:"not null" json:"name"`
	ServiceDate   time.Time       `gorm:"index;not null" json:"date"`
	MealType      MealType        `gorm:"type:varchar(20);not null" json:"mealType"`
	IsMember      bool            `json:"memberStatus"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`

	AccountID       *uuid.UUID `gorm:"type:uuid;index" json:"accountId,omitempty"`
	BufferAccountID *uuid.UUID `gorm:"type:uuid;index" json:"bufferAccountId,omitempty"`
	BatchID         *uuid.UUID `gorm:"type:uuid;index" json:"batchId,omitempty"`
	ContactID       *uuid.UUID `gorm:"type:uuid" json:"contactId,omitempty"`

	Status       ReservationStatus `gorm:"type:varchar(20);not null" json:"status"`
	FrozenFriday bool              `json:"isFrozenFriday"`
	Committed    bool              `json:"committed"` // carried the balance mutation for its batch
	Notes        string            `gorm:"type:text" json:"notes"`
	StaffID      uuid.UUID         `gorm:"type:uuid;index;not null" json:"staffId"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusReserved
	}
	if r.PaymentMethod.Free() {
		r.Amount = decimal.Zero
	}
	return
}
