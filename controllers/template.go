// controllers/template.go
package controllers

import (
	"errors"
	"net/http"

	"lunchdesk-backend/config"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateTemplateInput defines the expected JSON structure
type CreateTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=batch_summary renewal"`
	Message string `json:"message" binding:"required"`
}

// UpdateTemplateInput defines the expected JSON structure
type UpdateTemplateInput struct {
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// CreateTemplate creates a new notification template
func CreateTemplate(c *gin.Context) {
	var input CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	// Check if template type already exists
	var existing models.NotificationTemplate
	if err := config.DB.Where("type = ?", input.Type).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	template := models.NotificationTemplate{
		Type:     input.Type,
		Message:  input.Message,
		IsActive: true,
	}
	if err := config.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplates retrieves all notification templates
func GetTemplates(c *gin.Context) {
	var templates []models.NotificationTemplate
	if err := config.DB.Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// UpdateTemplate updates an existing template
func UpdateTemplate(c *gin.Context) {
	id, ok := paramUUID(c, "id", "template")
	if !ok {
		return
	}

	var input UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var template models.NotificationTemplate
	if err := config.DB.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template; the built-in message is used instead
func DeleteTemplate(c *gin.Context) {
	id, ok := paramUUID(c, "id", "template")
	if !ok {
		return
	}

	result := config.DB.Where("id = ?", id).Delete(&models.NotificationTemplate{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
