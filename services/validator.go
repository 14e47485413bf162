package services

import (
	"fmt"
	"strings"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
)

// Rejection reasons, one per rule.
const (
	ReasonWeekend        = "closed on weekends"
	ReasonFriday         = "Friday is only available for frozen meals picked up Thursday"
	ReasonPastDate       = "date is in the past"
	ReasonMissingName    = "customer name is required"
	ReasonMissingStaff   = "staff id is required"
	ReasonMealType       = "unknown meal type"
	ReasonPaymentMethod  = "unknown payment method"
	ReasonNoDates        = "at least one date is required"
	ReasonDuplicatedDate = "each date may appear only once"
)

// BookingCheck holds the fields the validator looks at.
type BookingCheck struct {
	Date           time.Time
	MealType       models.MealType
	PaymentMethod  models.PaymentMethod
	Quantity       int
	StaffID        uuid.UUID
	CustomerName   string
	IsFrozenFriday bool
}

// Validator enforces the scheduling rules of a booking. It has no side
// effects.
type Validator struct {
	Now      func() time.Time
	Location *time.Location
	MaxUnits int
}

func NewValidator(loc *time.Location, maxUnits int) *Validator {
	if loc == nil {
		loc = time.Local
	}
	if maxUnits <= 0 {
		maxUnits = 20
	}
	return &Validator{Now: time.Now, Location: loc, MaxUnits: maxUnits}
}

// Today is the current calendar date in the validator's location.
func (v *Validator) Today() time.Time {
	return utils.CalendarDate(v.Now().In(v.Location))
}

// Validate applies the rules in order and returns the first violation.
func (v *Validator) Validate(b BookingCheck) error {
	date := utils.CalendarDate(b.Date)

	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return reject(ReasonWeekend)
	case time.Friday:
		if !b.IsFrozenFriday {
			return reject(ReasonFriday)
		}
	}
	if date.Before(v.Today()) {
		return reject(ReasonPastDate)
	}
	if b.Quantity < 1 || b.Quantity > v.MaxUnits {
		return reject(fmt.Sprintf("quantity must be between 1 and %d", v.MaxUnits))
	}
	if strings.TrimSpace(b.CustomerName) == "" {
		return reject(ReasonMissingName)
	}
	if b.StaffID == uuid.Nil {
		return reject(ReasonMissingStaff)
	}
	if !b.MealType.Valid() {
		return reject(ReasonMealType)
	}
	if !b.PaymentMethod.Valid() {
		return reject(ReasonPaymentMethod)
	}
	return nil
}

// ValidateDates runs Validate for every date of a batch and rejects
// empty or repeated date lists.
func (v *Validator) ValidateDates(dates []time.Time, b BookingCheck) error {
	if len(dates) == 0 {
		return reject(ReasonNoDates)
	}
	seen := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		d = utils.CalendarDate(d)
		if seen[d] {
			return reject(ReasonDuplicatedDate)
		}
		seen[d] = true

		b.Date = d
		if err := v.Validate(b); err != nil {
			return err
		}
	}
	return nil
}
