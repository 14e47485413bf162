// controllers/reservation.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/services"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DateUnitsInput struct {
	Date  string `json:"date" binding:"required"`
	Units int    `json:"units" binding:"min=1"`
}

type BatchSummaryInput struct {
	Dates       []DateUnitsInput `json:"dates"`
	TotalUnits  int              `json:"totalUnits" binding:"min=0"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
}

// CreateReservationInput defines the expected JSON structure for booking a unit
type CreateReservationInput struct {
	Name             string               `json:"name" binding:"required"`
	Date             string               `json:"date" binding:"required"`
	MealType         models.MealType      `json:"mealType" binding:"required"`
	IsMember         bool                 `json:"memberStatus"`
	PaymentMethod    models.PaymentMethod `json:"paymentMethod" binding:"required"`
	PrimaryAccountID *uuid.UUID           `json:"primaryAccountId"`
	BufferAccountID  *uuid.UUID           `json:"bufferAccountId"`
	Notes            string               `json:"notes"`
	Quantity         int                  `json:"quantity"`
	Commit           *bool                `json:"commit"` // defaults to true
	IsFrozenFriday   bool                 `json:"isFrozenFriday"`
	BatchID          *uuid.UUID           `json:"batchId"`
	BatchSummary     *BatchSummaryInput   `json:"batchSummary"`
}

// ExecuteBatchInput defines the expected JSON structure for a multi-date booking
type ExecuteBatchInput struct {
	Name             string                   `json:"name" binding:"required"`
	Dates            []string                 `json:"dates" binding:"required,min=1"`
	Quantity         int                      `json:"quantity"`
	MealType         models.MealType          `json:"mealType" binding:"required"`
	IsMember         bool                     `json:"memberStatus"`
	PaymentMethod    models.PaymentMethod     `json:"paymentMethod" binding:"required"`
	PrimaryAccountID *uuid.UUID               `json:"primaryAccountId"`
	BufferAccountID  *uuid.UUID               `json:"bufferAccountId"`
	Notes            string                   `json:"notes"`
	PaymentReference string                   `json:"paymentReference"`
	Guests           []services.GuestOverride `json:"guests"`
	IsFrozenFriday   bool                     `json:"isFrozenFriday"`
	Commit           *bool                    `json:"commit"` // defaults to true
}

type UpdateStatusInput struct {
	Status models.ReservationStatus `json:"status" binding:"required,oneof=Pending Reserved Fulfilled Cancelled"`
}

type ReservationController struct {
	Booking *services.BookingService
}

func (input CreateReservationInput) toUnit(staffID uuid.UUID) (services.UnitRequest, error) {
	date, err := utils.ParseDate(input.Date)
	if err != nil {
		return services.UnitRequest{}, errors.New("Invalid date format, expected YYYY-MM-DD")
	}
	req := services.UnitRequest{
		Name:             input.Name,
		Date:             date,
		MealType:         input.MealType,
		IsMember:         input.IsMember,
		PaymentMethod:    input.PaymentMethod,
		PrimaryAccountID: input.PrimaryAccountID,
		BufferAccountID:  input.BufferAccountID,
		Notes:            input.Notes,
		StaffID:          staffID,
		Quantity:         input.Quantity,
		Commit:           input.Commit == nil || *input.Commit,
		IsFrozenFriday:   input.IsFrozenFriday,
		BatchID:          input.BatchID,
	}
	if s := input.BatchSummary; s != nil {
		summary := &services.BatchSummary{
			Customer:    input.Name,
			TotalUnits:  s.TotalUnits,
			TotalAmount: s.TotalAmount,
		}
		for _, d := range s.Dates {
			if _, err := utils.ParseDate(d.Date); err != nil {
				return services.UnitRequest{}, errors.New("Invalid batch summary date, expected YYYY-MM-DD")
			}
			summary.Dates = append(summary.Dates, services.DateUnits{Date: d.Date, Units: d.Units})
		}
		req.Summary = summary
	}
	return req, nil
}

// CreateReservation books one reservation unit
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		return
	}

	var input CreateReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, err := input.toUnit(staffID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rc.Booking.CreateReservation(c.Request.Context(), req)
	if err != nil {
		rc.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// PreviewReservation validates a booking and checks the balance without charging
func (rc *ReservationController) PreviewReservation(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		return
	}

	var input CreateReservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, err := input.toUnit(staffID)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rc.Booking.Preview(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenBatch issues a batch token for unit-by-unit booking
func (rc *ReservationController) OpenBatch(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		return
	}

	batch, err := rc.Booking.OpenBatch(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// ExecuteBatch books every date and unit of a batch in one request
func (rc *ReservationController) ExecuteBatch(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		return
	}

	var input ExecuteBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	dates := make([]time.Time, 0, len(input.Dates))
	for _, d := range input.Dates {
		date, err := utils.ParseDate(d)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		dates = append(dates, date)
	}

	if input.Quantity == 0 {
		input.Quantity = 1
	}

	report, err := rc.Booking.ExecuteBatch(c.Request.Context(), services.BatchRequest{
		CustomerName:     input.Name,
		Dates:            dates,
		QuantityPerDate:  input.Quantity,
		MealType:         input.MealType,
		IsMember:         input.IsMember,
		PaymentMethod:    input.PaymentMethod,
		PrimaryAccountID: input.PrimaryAccountID,
		BufferAccountID:  input.BufferAccountID,
		StaffID:          staffID,
		Notes:            input.Notes,
		PaymentReference: input.PaymentReference,
		Guests:           input.Guests,
		IsFrozenFriday:   input.IsFrozenFriday,
		Commit:           input.Commit == nil || *input.Commit,
	})
	if err != nil {
		rc.respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// UpdateReservationStatus moves a reservation to a new status
func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id", "reservation")
	if !ok {
		return
	}

	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reservation, err := rc.Booking.UpdateStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// respondBookingError includes the itemised report when a batch stopped
// part way.
func (rc *ReservationController) respondBookingError(c *gin.Context, err error) {
	var berr *services.BatchError
	if errors.As(err, &berr) {
		code, msg := serviceErrorStatus(berr.Err)
		c.AbortWithStatusJSON(code, gin.H{"error": msg, "report": berr.Report})
		return
	}
	respondServiceError(c, err)
}
