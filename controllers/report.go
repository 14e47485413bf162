// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"lunchdesk-backend/config"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReportController handles all reporting functions
type ReportController struct{}

// SalesReport summarises reservations and card sales over a date range
type SalesReport struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	Days            int             `json:"days"`
	ByPaymentMethod []SalesSummary  `json:"byPaymentMethod"`
	ByMealType      []SalesSummary  `json:"byMealType"`
	TotalUnits      int64           `json:"totalUnits"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	CardsSold       int64           `json:"cardsSold"`
	CardUnitsSold   int64           `json:"cardUnitsSold"`
}

type SalesSummary struct {
	Label   string          `json:"label"`
	Units   int64           `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

// GetSalesReport returns sales between the from and to dates (inclusive)
func (rc *ReportController) GetSalesReport(c *gin.Context) {
	from, to, ok := rc.reportRange(c)
	if !ok {
		return
	}

	report := SalesReport{
		From:         from.Format(utils.DateLayout),
		To:           to.Format(utils.DateLayout),
		Days:         utils.DaysBetween(from, to) + 1,
		TotalRevenue: decimal.Zero,
	}

	var err error
	if report.ByPaymentMethod, err = rc.groupedSales("payment_method", from, to); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build report")
		return
	}
	if report.ByMealType, err = rc.groupedSales("meal_type", from, to); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build report")
		return
	}
	for _, s := range report.ByPaymentMethod {
		report.TotalUnits += s.Units
		report.TotalRevenue = report.TotalRevenue.Add(s.Revenue)
	}

	purchases := config.DB.Model(&models.Account{}).
		Where("purchased_at >= ? AND purchased_at < ?", from, to.AddDate(0, 0, 1))
	purchases.Count(&report.CardsSold)
	config.DB.Model(&models.Account{}).
		Where("purchased_at >= ? AND purchased_at < ?", from, to.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(total_units), 0)").
		Scan(&report.CardUnitsSold)

	c.JSON(http.StatusOK, report)
}

func (rc *ReportController) reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	today := utils.CalendarDate(time.Now())
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := today

	if q := c.Query("from"); q != "" {
		parsed, err := utils.ParseDate(q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return from, to, false
		}
		from = parsed
	}
	if q := c.Query("to"); q != "" {
		parsed, err := utils.ParseDate(q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return from, to, false
		}
		to = parsed
	}
	if to.Before(from) {
		utils.RespondWithError(c, http.StatusBadRequest, "to must not be before from")
		return from, to, false
	}
	return from, to, true
}

// column is always one of the fixed names above
func (rc *ReportController) groupedSales(column string, from, to time.Time) ([]SalesSummary, error) {
	var rows []SalesSummary
	err := config.DB.Model(&models.Reservation{}).
		Select(column+" AS label, COUNT(*) AS units, COALESCE(SUM(amount), 0) AS revenue").
		Where("service_date >= ? AND service_date <= ? AND status <> ?", from, to, models.StatusCancelled).
		Group(column).
		Order(column).
		Scan(&rows).Error
	return rows, err
}
