package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MealPrice is the per-unit price for a meal type and member status.
type MealPrice struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	MealType MealType        `gorm:"type:varchar(20);not null;uniqueIndex:idx_meal_member,priority:1" json:"mealType"`
	IsMember bool            `gorm:"not null;uniqueIndex:idx_meal_member,priority:2" json:"memberStatus"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive bool            `gorm:"default:true" json:"isActive"`
}

func (p *MealPrice) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
