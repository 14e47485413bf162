package controllers

import (
	"errors"
	"log"
	"net/http"

	"lunchdesk-backend/services"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentStaffID reads the staff id set by the auth middleware.
func currentStaffID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Staff ID not found in context")
		return uuid.Nil, false
	}
	raw, _ := userID.(string)
	staffID, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid staff ID format")
		return uuid.Nil, false
	}
	return staffID, true
}

func paramUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// serviceErrorStatus maps a service error to an HTTP status and message.
func serviceErrorStatus(err error) (int, string) {
	var verr *services.ValidationError
	var ierr *services.InsufficientBalanceError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Reason
	case errors.As(err, &ierr):
		return http.StatusUnprocessableEntity, ierr.Error()
	case errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound, "Account not found"
	case errors.Is(err, services.ErrReservationNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, services.ErrBatchNotFound):
		return http.StatusNotFound, "Batch not found"
	case errors.Is(err, services.ErrAccountRequired),
		errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrBatchRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrBatchExpired),
		errors.Is(err, services.ErrBatchMismatch),
		errors.Is(err, services.ErrBatchFull),
		errors.Is(err, services.ErrConcurrentUpdate),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	}
	log.Printf("Unhandled service error: %v", err)
	return http.StatusInternalServerError, "Internal server error"
}

func respondServiceError(c *gin.Context, err error) {
	code, msg := serviceErrorStatus(err)
	utils.RespondWithError(c, code, msg)
}
