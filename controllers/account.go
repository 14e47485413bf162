package controllers

import (
	"net/http"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/services"
	"lunchdesk-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateAccountInput defines the expected JSON structure for selling a lunch card
type CreateAccountInput struct {
	HolderName      string     `json:"holderName" binding:"required"`
	Phone           string     `json:"phone"`
	TotalUnits      int        `json:"totalUnits" binding:"required,min=1"`
	RemainingUnits  *int       `json:"remainingUnits"` // ad-hoc entry of a partly used card
	IsMember        bool       `json:"memberStatus"`
	WeeklyRecurring bool       `json:"weeklyRecurring"`
	DeliveryAddress string     `json:"deliveryAddress"`
	PurchasedAt     *time.Time `json:"purchasedAt"`
}

type AccountController struct {
	DB       *gorm.DB
	Lookup   *services.BalanceLookup
	Contacts *services.ContactDirectory
}

// CreateAccount records a lunch card purchase
func (ac *AccountController) CreateAccount(c *gin.Context) {
	staffID, ok := currentStaffID(c)
	if !ok {
		return
	}

	var input CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	name := utils.NormalizeName(input.HolderName)
	if name == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Holder name is required")
		return
	}
	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	account := models.Account{
		HolderName:      name,
		Phone:           utils.CleanPhone(input.Phone),
		TotalUnits:      input.TotalUnits,
		RemainingUnits:  input.TotalUnits,
		IsMember:        input.IsMember,
		WeeklyRecurring: input.WeeklyRecurring,
		DeliveryAddress: input.DeliveryAddress,
		CreatedByUserID: staffID,
	}
	if input.RemainingUnits != nil {
		account.RemainingUnits = *input.RemainingUnits
	}
	if input.PurchasedAt != nil {
		account.PurchasedAt = *input.PurchasedAt
	}
	if err := account.CheckBalance(); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	account.ContactID = ac.Contacts.Resolve(c.Request.Context(), name, input.IsMember, models.SourceAccountPurchase)

	if err := ac.DB.WithContext(c.Request.Context()).Create(&account).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, account)
}

// SearchAccounts finds lunch cards by holder name or phone
func (ac *AccountController) SearchAccounts(c *gin.Context) {
	accounts, err := ac.Lookup.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// GetAccount returns a lunch card with its deduction history
func (ac *AccountController) GetAccount(c *gin.Context) {
	id, ok := paramUUID(c, "id", "account")
	if !ok {
		return
	}

	detail, err := ac.Lookup.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
