package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BatchSummary describes a whole batch for the notification sent by its
// designated unit.
type BatchSummary struct {
	Customer    string          `json:"customer"`
	Dates       []DateUnits     `json:"dates"`
	TotalUnits  int             `json:"totalUnits"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// UnitRequest is the create-reservation operation for a single unit.
type UnitRequest struct {
	Name             string
	Date             time.Time
	MealType         models.MealType
	IsMember         bool
	PaymentMethod    models.PaymentMethod
	PrimaryAccountID *uuid.UUID
	BufferAccountID  *uuid.UUID
	Notes            string
	StaffID          uuid.UUID
	Quantity         int
	Commit           bool
	IsFrozenFriday   bool
	BatchID          *uuid.UUID
	Summary          *BatchSummary
}

type UnitResult struct {
	ReservationID uuid.UUID        `json:"reservationId"`
	ReferenceCode string           `json:"referenceCode"`
	BatchID       *uuid.UUID       `json:"batchId,omitempty"`
	AmountCharged decimal.Decimal  `json:"amountCharged"`
	Committed     bool             `json:"committed"`
	Balances      *DeductionResult `json:"balances,omitempty"`
}

// BookingService turns booking requests into reservations, drawing on
// prepaid accounts at most once per batch.
type BookingService struct {
	db        *gorm.DB
	Validator *Validator
	Engine    *DeductionEngine
	Contacts  *ContactDirectory
	Prices    *PriceBook
	Notifier  Dispatcher
	BatchTTL  time.Duration
}

func NewBookingService(db *gorm.DB, v *Validator, engine *DeductionEngine, contacts *ContactDirectory, prices *PriceBook, notifier Dispatcher, batchTTL time.Duration) *BookingService {
	if batchTTL <= 0 {
		batchTTL = 30 * time.Minute
	}
	return &BookingService{
		db:        db,
		Validator: v,
		Engine:    engine,
		Contacts:  contacts,
		Prices:    prices,
		Notifier:  notifier,
		BatchTTL:  batchTTL,
	}
}

// now is kept in UTC so stored timestamps compare consistently.
func (s *BookingService) now() time.Time {
	return s.Validator.Now().UTC()
}

// OpenBatch issues a batch token. The first unit that presents it is the
// only one allowed to mutate balances and notify.
func (s *BookingService) OpenBatch(ctx context.Context, staffID uuid.UUID) (*models.BatchTransaction, error) {
	if staffID == uuid.Nil {
		return nil, reject(ReasonMissingStaff)
	}
	batch := models.BatchTransaction{
		StaffID:   staffID,
		Status:    models.BatchOpen,
		ExpiresAt: s.now().Add(s.BatchTTL),
	}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	return &batch, nil
}

// CreateReservation books one reservation request. With a batch token the
// token decides whether this unit commits. Without one, commit=false is
// rejected and commit=true starts a batch: with a batch summary it opens a
// token, deducts the whole summary and returns the token for the remaining
// units, otherwise the request is booked as a batch of its own.
func (s *BookingService) CreateReservation(ctx context.Context, req UnitRequest) (*UnitResult, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.BatchID != nil {
		return s.createUnit(ctx, req)
	}
	if !req.Commit {
		return nil, ErrBatchRequired
	}

	if req.Summary != nil && req.Summary.TotalUnits > 0 {
		if err := s.precheck(ctx, req); err != nil {
			return nil, err
		}
		batch, err := s.OpenBatch(ctx, req.StaffID)
		if err != nil {
			return nil, err
		}
		req.BatchID = &batch.ID
		return s.createUnit(ctx, req)
	}

	report, err := s.ExecuteBatch(ctx, BatchRequest{
		CustomerName:     req.Name,
		Dates:            []time.Time{req.Date},
		QuantityPerDate:  req.Quantity,
		MealType:         req.MealType,
		IsMember:         req.IsMember,
		PaymentMethod:    req.PaymentMethod,
		PrimaryAccountID: req.PrimaryAccountID,
		BufferAccountID:  req.BufferAccountID,
		StaffID:          req.StaffID,
		Notes:            req.Notes,
		IsFrozenFriday:   req.IsFrozenFriday,
		Commit:           true,
	})
	if err != nil {
		return nil, err
	}
	first := report.Units[0]
	return &UnitResult{
		ReservationID: first.ReservationID,
		ReferenceCode: first.ReferenceCode,
		BatchID:       report.BatchID,
		AmountCharged: report.TotalAmount,
		Committed:     true,
		Balances:      report.Balances,
	}, nil
}

// precheck rejects a committing request before a token is opened for it.
func (s *BookingService) precheck(ctx context.Context, req UnitRequest) error {
	if err := s.Validator.Validate(checkFor(req)); err != nil {
		return err
	}
	if err := requireAccount(req.PaymentMethod, req.PrimaryAccountID, req.BufferAccountID); err != nil {
		return err
	}
	if req.PaymentMethod != models.PayAccountDeduction {
		return nil
	}
	_, err := s.Engine.Deduct(ctx, DeductionRequest{
		PrimaryID: *req.PrimaryAccountID,
		BufferID:  req.BufferAccountID,
		Quantity:  batchUnits(req),
	})
	return err
}

// batchUnits is the number of units a committing request pays for.
func batchUnits(req UnitRequest) int {
	if req.Summary != nil && req.Summary.TotalUnits > 0 {
		return req.Summary.TotalUnits
	}
	return req.Quantity
}

// Preview validates a request and checks the balance without writing.
func (s *BookingService) Preview(ctx context.Context, req UnitRequest) (*UnitResult, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.Validator.Validate(checkFor(req)); err != nil {
		return nil, err
	}
	if err := requireAccount(req.PaymentMethod, req.PrimaryAccountID, req.BufferAccountID); err != nil {
		return nil, err
	}

	price, err := s.Prices.Charge(ctx, req.MealType, req.IsMember, req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	result := &UnitResult{AmountCharged: price.Mul(decimal.NewFromInt(int64(req.Quantity)))}

	if req.PaymentMethod == models.PayAccountDeduction {
		result.Balances, err = s.Engine.Deduct(ctx, DeductionRequest{
			PrimaryID: *req.PrimaryAccountID,
			BufferID:  req.BufferAccountID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// createUnit persists one reservation. Only the unit that consumes the
// batch token deducts balance and sends the notification. Later units must
// match its account and payment method and stay within its unit count.
func (s *BookingService) createUnit(ctx context.Context, req UnitRequest) (*UnitResult, error) {
	if err := s.Validator.Validate(checkFor(req)); err != nil {
		return nil, err
	}
	if err := requireAccount(req.PaymentMethod, req.PrimaryAccountID, req.BufferAccountID); err != nil {
		return nil, err
	}

	amount, err := s.Prices.Charge(ctx, req.MealType, req.IsMember, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var (
		reservation models.Reservation
		result      *UnitResult
	)
	err = s.Engine.RunInTx(ctx, func(tx *gorm.DB) error {
		result = &UnitResult{AmountCharged: amount}

		designated := false
		if req.BatchID != nil {
			var err error
			if designated, err = s.consumeBatch(tx, req); err != nil {
				return err
			}
		}

		if designated && req.PaymentMethod == models.PayAccountDeduction {
			balances, err := s.Engine.DeductTx(tx, DeductionRequest{
				PrimaryID: *req.PrimaryAccountID,
				BufferID:  req.BufferAccountID,
				Quantity:  batchUnits(req),
				Commit:    true,
			})
			if err != nil {
				return err
			}
			result.Balances = balances
		}

		date := utils.CalendarDate(req.Date)
		reservation = models.Reservation{
			ReferenceCode:   "RSV-" + date.Format("20060102") + "-" + utils.GenerateRandomString(6),
			DisplayName:     utils.NormalizeName(req.Name),
			ServiceDate:     date,
			MealType:        req.MealType,
			IsMember:        req.IsMember,
			PaymentMethod:   req.PaymentMethod,
			Amount:          amount,
			AccountID:       req.PrimaryAccountID,
			BufferAccountID: req.BufferAccountID,
			BatchID:         req.BatchID,
			Status:          models.StatusReserved,
			FrozenFriday:    req.IsFrozenFriday,
			Committed:       designated,
			Notes:           req.Notes,
			StaffID:         req.StaffID,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		if designated {
			if err := tx.Model(&models.BatchTransaction{}).
				Where("id = ?", *req.BatchID).
				Update("consumed_by", reservation.ID).Error; err != nil {
				return fmt.Errorf("mark batch: %w", err)
			}
		}
		result.Committed = designated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.attachContact(ctx, &reservation, req)

	result.ReservationID = reservation.ID
	result.ReferenceCode = reservation.ReferenceCode
	result.BatchID = req.BatchID

	if result.Committed {
		s.notify(ctx, req, result)
	}
	return result, nil
}

// attachContact links a stored reservation to the contact directory.
// Failures are logged only.
func (s *BookingService) attachContact(ctx context.Context, reservation *models.Reservation, req UnitRequest) {
	contactID := s.Contacts.Resolve(ctx, req.Name, req.IsMember, models.SourceReservation)
	if contactID == nil {
		return
	}
	if err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", reservation.ID).
		Update("contact_id", *contactID).Error; err != nil {
		log.Printf("[BOOKING] link contact for %s failed: %v", reservation.ReferenceCode, err)
		return
	}
	reservation.ContactID = contactID
}

// consumeBatch flips an open, unexpired token to consumed and records what
// the batch committed. It returns true for the single caller that wins.
// Later units are counted against the batch and must match it.
func (s *BookingService) consumeBatch(tx *gorm.DB, req UnitRequest) (bool, error) {
	batchID := *req.BatchID
	now := s.now()
	claim := map[string]interface{}{
		"status":         models.BatchConsumed,
		"consumed_at":    now,
		"payment_method": req.PaymentMethod,
		"total_units":    batchUnits(req),
		"units_booked":   1,
	}
	if req.PrimaryAccountID != nil {
		claim["account_id"] = *req.PrimaryAccountID
	}
	if req.BufferAccountID != nil {
		claim["buffer_account_id"] = *req.BufferAccountID
	}
	res := tx.Model(&models.BatchTransaction{}).
		Where("id = ? AND status = ? AND expires_at > ?", batchID, models.BatchOpen, now).
		Updates(claim)
	if res.Error != nil {
		return false, fmt.Errorf("consume batch: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var batch models.BatchTransaction
	if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrBatchNotFound
		}
		return false, fmt.Errorf("load batch: %w", err)
	}
	if batch.Status != models.BatchConsumed {
		return false, ErrBatchExpired
	}
	if !batch.Covers(req.PaymentMethod, req.PrimaryAccountID, req.BufferAccountID) {
		return false, ErrBatchMismatch
	}

	res = tx.Model(&models.BatchTransaction{}).
		Where("id = ? AND units_booked < total_units", batchID).
		Update("units_booked", gorm.Expr("units_booked + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("count batch unit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, ErrBatchFull
	}
	return false, nil
}

func (s *BookingService) notify(ctx context.Context, req UnitRequest, result *UnitResult) {
	if s.Notifier == nil {
		return
	}
	summary := req.Summary
	if summary == nil {
		summary = &BatchSummary{
			Customer:    req.Name,
			Dates:       []DateUnits{{Date: req.Date.Format(utils.DateLayout), Units: req.Quantity}},
			TotalUnits:  req.Quantity,
			TotalAmount: result.AmountCharged.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}
	}
	n := Notification{
		Type:        models.NotifyBatchSummary,
		Customer:    summary.Customer,
		Dates:       summary.Dates,
		TotalUnits:  summary.TotalUnits,
		TotalAmount: summary.TotalAmount,
		Balances:    result.Balances,
		StaffID:     req.StaffID,
		AccountID:   req.PrimaryAccountID,
		BatchID:     req.BatchID,
		Timestamp:   s.now(),
	}
	if !s.Notifier.Dispatch(ctx, n) {
		log.Printf("[BOOKING] notification for batch %v failed; booking kept", req.BatchID)
	}
}

// UpdateStatus moves a reservation along its allowed status transitions.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, next models.ReservationStatus) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if !reservation.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, reservation.Status, next)
		}
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", id, reservation.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		reservation.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func checkFor(req UnitRequest) BookingCheck {
	return BookingCheck{
		Date:           req.Date,
		MealType:       req.MealType,
		PaymentMethod:  req.PaymentMethod,
		Quantity:       req.Quantity,
		StaffID:        req.StaffID,
		CustomerName:   req.Name,
		IsFrozenFriday: req.IsFrozenFriday,
	}
}

func requireAccount(method models.PaymentMethod, primary, buffer *uuid.UUID) error {
	if method == models.PayAccountDeduction && primary == nil {
		return ErrAccountRequired
	}
	if buffer != nil && primary == nil {
		return ErrAccountRequired
	}
	if buffer != nil && *buffer == *primary {
		return ErrSameAccount
	}
	return nil
}
