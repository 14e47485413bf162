package controllers

import (
	"net/http"
	"time"

	"lunchdesk-backend/config"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	Date             string           `json:"date"`
	TotalUnits       int64            `json:"totalUnits"`
	ByMealType       map[string]int64 `json:"byMealType"`
	FrozenFriday     int64            `json:"frozenFriday"`
	Deliveries       []DeliveryStop   `json:"deliveries"`
	OutstandingUnits int64            `json:"outstandingUnits"`
	ActiveAccounts   int64            `json:"activeAccounts"`
}

type DeliveryStop struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// GetDashboardOverview returns the kitchen roster for one day
func GetDashboardOverview(c *gin.Context) {
	day := utils.CalendarDate(time.Now())
	if q := c.Query("date"); q != "" {
		parsed, err := utils.ParseDate(q)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	overview := DashboardOverview{
		Date:       day.Format(utils.DateLayout),
		ByMealType: map[string]int64{},
		Deliveries: []DeliveryStop{},
	}

	booked := config.DB.Model(&models.Reservation{}).
		Where("service_date = ? AND status <> ?", day, models.StatusCancelled)

	// Units per meal type
	var counts []struct {
		MealType string
		Units    int64
	}
	if err := booked.Session(&gorm.Session{}).
		Select("meal_type, COUNT(*) AS units").
		Group("meal_type").
		Scan(&counts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load roster")
		return
	}
	for _, row := range counts {
		overview.ByMealType[row.MealType] = row.Units
		overview.TotalUnits += row.Units
	}

	if err := booked.Session(&gorm.Session{}).
		Where("frozen_friday = ?", true).
		Count(&overview.FrozenFriday).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count frozen Friday meals")
		return
	}

	if err := config.DB.Raw(`
		SELECT r.display_name AS name, COALESCE(a.delivery_address, '') AS address, r.notes
		FROM reservations r
		LEFT JOIN accounts a ON a.id = r.account_id
		WHERE r.service_date = ? AND r.meal_type = ? AND r.status <> ?
		ORDER BY r.display_name
	`, day, models.MealDelivery, models.StatusCancelled).Scan(&overview.Deliveries).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load deliveries")
		return
	}

	// Prepaid units still owed to card holders
	if err := config.DB.Model(&models.Account{}).
		Select("COALESCE(SUM(remaining_units), 0)").
		Scan(&overview.OutstandingUnits).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load outstanding units")
		return
	}
	if err := config.DB.Model(&models.Account{}).
		Where("remaining_units > 0").
		Count(&overview.ActiveAccounts).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count active accounts")
		return
	}

	c.JSON(http.StatusOK, overview)
}
