package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuestOverride customises one unit index of every date in a batch.
type GuestOverride struct {
	Name         string `json:"name"`
	SpecialOrder string `json:"specialOrder"`
}

// BatchRequest is one staff booking action: the same order placed for
// QuantityPerDate units on each of Dates.
type BatchRequest struct {
	CustomerName     string
	Dates            []time.Time
	QuantityPerDate  int
	MealType         models.MealType
	IsMember         bool
	PaymentMethod    models.PaymentMethod
	PrimaryAccountID *uuid.UUID
	BufferAccountID  *uuid.UUID
	StaffID          uuid.UUID
	Notes            string
	PaymentReference string
	Guests           []GuestOverride
	IsFrozenFriday   bool

	// Commit allows the batch to mutate balances and notify. A batch
	// without it only records reservations.
	Commit bool
}

// BatchUnit is one persisted reservation of a batch.
type BatchUnit struct {
	Date          string          `json:"date"`
	Index         int             `json:"index"`
	Name          string          `json:"name"`
	ReservationID uuid.UUID       `json:"reservationId"`
	ReferenceCode string          `json:"referenceCode"`
	Amount        decimal.Decimal `json:"amount"`
	Committed     bool            `json:"committed"`
}

// BatchReport itemises a batch. On failure it lists the units created
// before the failing one.
type BatchReport struct {
	BatchID     *uuid.UUID       `json:"batchId,omitempty"`
	Requested   int              `json:"requested"`
	Created     int              `json:"created"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Balances    *DeductionResult `json:"balances,omitempty"`
	Units       []BatchUnit      `json:"units"`
	Log         []string         `json:"log"`
	Failure     string           `json:"failure,omitempty"`
}

// BatchError reports a batch that stopped part way.
type BatchError struct {
	Report *BatchReport
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch stopped after %d of %d units: %v", e.Report.Created, e.Report.Requested, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ExecuteBatch expands dates × quantity into reservation units and creates
// them one by one, in request order. The first unit of the first date is
// the designated unit: it alone deducts the whole batch from the account
// and triggers the notification.
func (s *BookingService) ExecuteBatch(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	check := BookingCheck{
		MealType:       req.MealType,
		PaymentMethod:  req.PaymentMethod,
		Quantity:       req.QuantityPerDate,
		StaffID:        req.StaffID,
		CustomerName:   req.CustomerName,
		IsFrozenFriday: req.IsFrozenFriday,
	}
	if err := s.Validator.ValidateDates(req.Dates, check); err != nil {
		return nil, err
	}
	if err := requireAccount(req.PaymentMethod, req.PrimaryAccountID, req.BufferAccountID); err != nil {
		return nil, err
	}

	totalUnits := len(req.Dates) * req.QuantityPerDate
	unitPrice, err := s.Prices.Charge(ctx, req.MealType, req.IsMember, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if req.PaymentMethod == models.PayAccountDeduction {
		if _, err := s.Engine.Deduct(ctx, DeductionRequest{
			PrimaryID: *req.PrimaryAccountID,
			BufferID:  req.BufferAccountID,
			Quantity:  totalUnits,
		}); err != nil {
			return nil, err
		}
	}

	report := &BatchReport{
		Requested:   totalUnits,
		TotalAmount: unitPrice.Mul(decimal.NewFromInt(int64(totalUnits))),
	}

	summary := &BatchSummary{
		Customer:    req.CustomerName,
		TotalUnits:  totalUnits,
		TotalAmount: report.TotalAmount,
	}
	for _, d := range req.Dates {
		summary.Dates = append(summary.Dates, DateUnits{Date: d.Format(utils.DateLayout), Units: req.QuantityPerDate})
	}

	if req.Commit {
		batch, err := s.OpenBatch(ctx, req.StaffID)
		if err != nil {
			return nil, err
		}
		report.BatchID = &batch.ID
	}

	for d, date := range req.Dates {
		day := date.Format(utils.DateLayout)
		for i := 0; i < req.QuantityPerDate; i++ {
			name := unitName(req, d, i)
			unit := UnitRequest{
				Name:             name,
				Date:             date,
				MealType:         req.MealType,
				IsMember:         req.IsMember,
				PaymentMethod:    req.PaymentMethod,
				PrimaryAccountID: req.PrimaryAccountID,
				BufferAccountID:  req.BufferAccountID,
				Notes:            unitNote(req, d, i),
				StaffID:          req.StaffID,
				Quantity:         req.QuantityPerDate,
				IsFrozenFriday:   req.IsFrozenFriday,
				BatchID:          report.BatchID,
				Summary:          summary,
			}

			res, err := s.createUnit(ctx, unit)
			if err != nil {
				report.Failure = err.Error()
				report.Log = append(report.Log, fmt.Sprintf("FAILED %s #%d %s: %v", day, i+1, name, err))
				report.Log = append(report.Log, fmt.Sprintf("created %d of %d units", report.Created, report.Requested))
				log.Printf("[BOOKING] batch for %q stopped at %s #%d: %v", req.CustomerName, day, i+1, err)
				return report, &BatchError{Report: report, Err: err}
			}

			if res.Committed {
				report.Balances = res.Balances
			}
			report.Created++
			report.Units = append(report.Units, BatchUnit{
				Date:          day,
				Index:         i,
				Name:          name,
				ReservationID: res.ReservationID,
				ReferenceCode: res.ReferenceCode,
				Amount:        res.AmountCharged,
				Committed:     res.Committed,
			})
			report.Log = append(report.Log, fmt.Sprintf("OK %s #%d %s %s", day, i+1, name, res.ReferenceCode))
		}
	}

	report.Log = append(report.Log, fmt.Sprintf("created %d of %d units", report.Created, report.Requested))
	return report, nil
}

// The designated unit (unit 0 of date 0) belongs to the customer: it takes
// neither the guest name nor the guest special order. Every other unit
// takes both from the guest override at its index.
func guestFor(req BatchRequest, dateIndex, unitIndex int) (GuestOverride, bool) {
	if dateIndex == 0 && unitIndex == 0 {
		return GuestOverride{}, false
	}
	if unitIndex < len(req.Guests) {
		return req.Guests[unitIndex], true
	}
	return GuestOverride{}, false
}

func unitName(req BatchRequest, dateIndex, unitIndex int) string {
	if guest, ok := guestFor(req, dateIndex, unitIndex); ok {
		if name := strings.TrimSpace(guest.Name); name != "" {
			return name
		}
	}
	return req.CustomerName
}

func unitNote(req BatchRequest, dateIndex, unitIndex int) string {
	parts := []string{strings.TrimSpace(req.Notes)}
	if guest, ok := guestFor(req, dateIndex, unitIndex); ok {
		parts = append(parts, strings.TrimSpace(guest.SpecialOrder))
	}
	if ref := strings.TrimSpace(req.PaymentReference); ref != "" {
		parts = append(parts, "Payment ref: "+ref)
	}

	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}
