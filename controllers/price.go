// controllers/price.go
package controllers

import (
	"errors"
	"net/http"

	"lunchdesk-backend/config"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreatePriceInput defines the expected JSON structure for creating a meal price
type CreatePriceInput struct {
	MealType models.MealType  `json:"mealType" binding:"required,oneof=DineIn ToGo Delivery"`
	IsMember bool             `json:"memberStatus"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
}

// UpdatePriceInput defines the expected JSON structure for updating a meal price
type UpdatePriceInput struct {
	Price    *decimal.Decimal `json:"price"`
	IsActive *bool            `json:"isActive"`
}

// CreatePrice sets the price of a meal type for members or non-members
func CreatePrice(c *gin.Context) {
	var input CreatePriceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Price.IsNegative() {
		utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
		return
	}

	// Check if a price already exists for this combination
	var existing models.MealPrice
	if err := config.DB.Where("meal_type = ? AND is_member = ?", input.MealType, input.IsMember).
		First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Price for this meal type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	price := models.MealPrice{
		MealType: input.MealType,
		IsMember: input.IsMember,
		Price:    input.Price.Round(2),
		IsActive: true,
	}
	if err := config.DB.Create(&price).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create price")
		return
	}

	c.JSON(http.StatusCreated, price)
}

// GetPrices retrieves all meal prices
func GetPrices(c *gin.Context) {
	var prices []models.MealPrice
	if err := config.DB.Order("meal_type, is_member").Find(&prices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve prices")
		return
	}

	c.JSON(http.StatusOK, prices)
}

// UpdatePrice updates an existing meal price
func UpdatePrice(c *gin.Context) {
	id, ok := paramUUID(c, "id", "price")
	if !ok {
		return
	}

	var input UpdatePriceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var price models.MealPrice
	if err := config.DB.First(&price, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Price not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Price != nil {
		if input.Price.IsNegative() {
			utils.RespondWithError(c, http.StatusBadRequest, "Price must not be negative")
			return
		}
		price.Price = input.Price.Round(2)
	}
	if input.IsActive != nil {
		price.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&price).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update price")
		return
	}

	c.JSON(http.StatusOK, price)
}

// DeletePrice removes a meal price; bookings fall back to the default price
func DeletePrice(c *gin.Context) {
	id, ok := paramUUID(c, "id", "price")
	if !ok {
		return
	}

	result := config.DB.Where("id = ?", id).Delete(&models.MealPrice{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete price")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Price not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Price deleted successfully"})
}
