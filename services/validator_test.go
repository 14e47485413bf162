package services

import (
	"errors"
	"testing"
	"time"

	"lunchdesk-backend/models"

	"github.com/google/uuid"
)

func fixedValidator(now time.Time, loc *time.Location) *Validator {
	v := NewValidator(loc, 20)
	v.Now = func() time.Time { return now }
	return v
}

func validCheck(t *testing.T, date string) BookingCheck {
	return BookingCheck{
		Date:          day(t, date),
		MealType:      models.MealDineIn,
		PaymentMethod: models.PayCash,
		Quantity:      1,
		StaffID:       uuid.New(),
		CustomerName:  "Jane Doe",
	}
}

func TestValidateRules(t *testing.T) {
	v := fixedValidator(testNow, time.UTC)

	tests := []struct {
		name   string
		mutate func(*BookingCheck)
		want   string
	}{
		{"today is bookable", func(b *BookingCheck) {}, ""},
		{"saturday", func(b *BookingCheck) { b.Date = day(t, "2026-10-17") }, ReasonWeekend},
		{"sunday", func(b *BookingCheck) { b.Date = day(t, "2026-10-18") }, ReasonWeekend},
		{"friday not frozen", func(b *BookingCheck) { b.Date = day(t, "2026-10-16") }, ReasonFriday},
		{"friday frozen", func(b *BookingCheck) {
			b.Date = day(t, "2026-10-16")
			b.IsFrozenFriday = true
		}, ""},
		{"past weekday", func(b *BookingCheck) { b.Date = day(t, "2026-10-08") }, ReasonPastDate},
		{"weekend checked before past", func(b *BookingCheck) { b.Date = day(t, "2026-10-10") }, ReasonWeekend},
		{"zero quantity", func(b *BookingCheck) { b.Quantity = 0 }, "quantity must be between 1 and 20"},
		{"quantity over limit", func(b *BookingCheck) { b.Quantity = 21 }, "quantity must be between 1 and 20"},
		{"quantity at limit", func(b *BookingCheck) { b.Quantity = 20 }, ""},
		{"blank name", func(b *BookingCheck) { b.CustomerName = "   " }, ReasonMissingName},
		{"missing staff", func(b *BookingCheck) { b.StaffID = uuid.Nil }, ReasonMissingStaff},
		{"unknown meal", func(b *BookingCheck) { b.MealType = "Brunch" }, ReasonMealType},
		{"unknown payment", func(b *BookingCheck) { b.PaymentMethod = "Barter" }, ReasonPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validCheck(t, "2026-10-12")
			tt.mutate(&b)
			err := v.Validate(b)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate: unexpected error %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate: got %v, want ValidationError", err)
			}
			if verr.Reason != tt.want {
				t.Errorf("reason = %q, want %q", verr.Reason, tt.want)
			}
		})
	}
}

func TestValidateUsesLocationForToday(t *testing.T) {
	// 23:30 UTC Monday is already Tuesday ten hours east.
	now := time.Date(2026, 10, 12, 23, 30, 0, 0, time.UTC)
	v := fixedValidator(now, time.FixedZone("UTC+10", 10*3600))

	if got := v.Today(); !got.Equal(day(t, "2026-10-13")) {
		t.Fatalf("Today = %v, want 2026-10-13", got)
	}
	err := v.Validate(validCheck(t, "2026-10-12"))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Reason != ReasonPastDate {
		t.Fatalf("Validate = %v, want %q", err, ReasonPastDate)
	}
}

func TestValidateDates(t *testing.T) {
	v := fixedValidator(testNow, time.UTC)
	b := validCheck(t, "2026-10-12")

	if err := v.ValidateDates([]time.Time{day(t, "2026-10-13"), day(t, "2026-10-14")}, b); err != nil {
		t.Fatalf("ValidateDates: %v", err)
	}

	cases := map[string]struct {
		dates []time.Time
		want  string
	}{
		"empty":      {nil, ReasonNoDates},
		"duplicated": {[]time.Time{day(t, "2026-10-13"), day(t, "2026-10-13")}, ReasonDuplicatedDate},
		"one bad":    {[]time.Time{day(t, "2026-10-13"), day(t, "2026-10-17")}, ReasonWeekend},
	}
	for name, tc := range cases {
		err := v.ValidateDates(tc.dates, b)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Reason != tc.want {
			t.Errorf("%s: got %v, want %q", name, err, tc.want)
		}
	}
}
