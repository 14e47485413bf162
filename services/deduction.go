package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lunchdesk-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BalanceChange is the before/after snapshot of one account.
type BalanceChange struct {
	AccountID uuid.UUID `json:"accountId"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
}

type DeductionRequest struct {
	PrimaryID uuid.UUID
	BufferID  *uuid.UUID
	Quantity  int
	Commit    bool
}

type DeductionResult struct {
	Available int            `json:"available"`
	Committed bool           `json:"committed"`
	Primary   BalanceChange  `json:"primary"`
	Buffer    *BalanceChange `json:"buffer,omitempty"`
}

// DeductionEngine draws meal units from a primary account and, once it is
// empty, from an optional buffer account. Every write is a version-checked
// compare-and-swap and both writes share one transaction.
type DeductionEngine struct {
	db         *gorm.DB
	MaxRetries int
}

func NewDeductionEngine(db *gorm.DB, maxRetries int) *DeductionEngine {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &DeductionEngine{db: db, MaxRetries: maxRetries}
}

// Available returns primary.remaining + buffer.remaining.
func (e *DeductionEngine) Available(ctx context.Context, primaryID uuid.UUID, bufferID *uuid.UUID) (int, error) {
	primary, buffer, err := loadAccounts(e.db.WithContext(ctx), primaryID, bufferID)
	if err != nil {
		return 0, err
	}
	return available(primary, buffer), nil
}

// Deduct checks the request against the available balance and, when
// Commit is set, performs the deduction.
func (e *DeductionEngine) Deduct(ctx context.Context, req DeductionRequest) (*DeductionResult, error) {
	if !req.Commit {
		return e.DeductTx(e.db.WithContext(ctx), req)
	}

	var result *DeductionResult
	err := e.RunInTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = e.DeductTx(tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RunInTx runs fn in a transaction, retrying the whole transaction when a
// balance write loses a version race.
func (e *DeductionEngine) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= e.MaxRetries; attempt++ {
		err = e.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}
		log.Printf("[BOOKING] balance conflict on attempt %d, retrying", attempt+1)
	}
	return err
}

// DeductTx does the work of Deduct on an existing handle. With Commit set,
// tx must be a transaction so both account writes land together.
func (e *DeductionEngine) DeductTx(tx *gorm.DB, req DeductionRequest) (*DeductionResult, error) {
	if req.Quantity < 1 {
		return nil, reject("quantity must be at least 1")
	}
	if req.BufferID != nil && *req.BufferID == req.PrimaryID {
		return nil, ErrSameAccount
	}

	primary, buffer, err := loadAccounts(tx, req.PrimaryID, req.BufferID)
	if err != nil {
		return nil, err
	}

	result := &DeductionResult{
		Available: available(primary, buffer),
		Primary:   BalanceChange{AccountID: primary.ID, Before: primary.RemainingUnits, After: primary.RemainingUnits},
	}
	if buffer != nil {
		result.Buffer = &BalanceChange{AccountID: buffer.ID, Before: buffer.RemainingUnits, After: buffer.RemainingUnits}
	}

	if req.Quantity > result.Available {
		return nil, &InsufficientBalanceError{Available: result.Available, Requested: req.Quantity}
	}
	if !req.Commit {
		return result, nil
	}

	fromPrimary := min(primary.RemainingUnits, req.Quantity)
	rest := req.Quantity - fromPrimary

	if fromPrimary > 0 {
		if err := setRemaining(tx, primary, primary.RemainingUnits-fromPrimary); err != nil {
			return nil, fmt.Errorf("primary account: %w", err)
		}
		result.Primary.After = primary.RemainingUnits
	}
	if rest > 0 {
		// buffer cannot be nil here: the sufficiency check covers it
		if err := setRemaining(tx, buffer, buffer.RemainingUnits-rest); err != nil {
			return nil, fmt.Errorf("buffer account: %w", err)
		}
		result.Buffer.After = buffer.RemainingUnits
	}

	result.Committed = true
	return result, nil
}

func available(primary, buffer *models.Account) int {
	total := primary.RemainingUnits
	if buffer != nil {
		total += buffer.RemainingUnits
	}
	return total
}

func loadAccounts(db *gorm.DB, primaryID uuid.UUID, bufferID *uuid.UUID) (*models.Account, *models.Account, error) {
	primary, err := loadAccount(db, primaryID)
	if err != nil {
		return nil, nil, err
	}
	if bufferID == nil {
		return primary, nil, nil
	}
	buffer, err := loadAccount(db, *bufferID)
	if err != nil {
		return nil, nil, err
	}
	return primary, buffer, nil
}

func loadAccount(db *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account %s: %w", id, err)
	}
	return &account, nil
}

// setRemaining writes a new balance only if nobody else has written the
// account since it was read.
func setRemaining(tx *gorm.DB, account *models.Account, remaining int) error {
	if remaining < 0 || remaining > account.TotalUnits {
		return models.ErrBalanceOutOfRange
	}
	res := tx.Model(&models.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"remaining_units": remaining,
			"version":         account.Version + 1,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	account.RemainingUnits = remaining
	account.Version++
	return nil
}
