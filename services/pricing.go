package services

import (
	"context"
	"errors"
	"fmt"

	"lunchdesk-backend/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultPrices apply when no active MealPrice row exists.
var DefaultPrices = map[bool]decimal.Decimal{
	true:  decimal.NewFromInt(8),
	false: decimal.NewFromInt(10),
}

type PriceBook struct {
	db *gorm.DB
}

func NewPriceBook(db *gorm.DB) *PriceBook {
	return &PriceBook{db: db}
}

// UnitPrice is the price of one meal of the given type.
func (p *PriceBook) UnitPrice(ctx context.Context, meal models.MealType, isMember bool) (decimal.Decimal, error) {
	var price models.MealPrice
	err := p.db.WithContext(ctx).
		Where("meal_type = ? AND is_member = ? AND is_active = ?", meal, isMember, true).
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultPrices[isMember], nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("price lookup: %w", err)
	}
	return price.Price, nil
}

// Charge is the amount for one unit paid with method.
func (p *PriceBook) Charge(ctx context.Context, meal models.MealType, isMember bool, method models.PaymentMethod) (decimal.Decimal, error) {
	if method.Free() {
		return decimal.Zero, nil
	}
	return p.UnitPrice(ctx, meal, isMember)
}
