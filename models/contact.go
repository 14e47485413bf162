package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContactTypeMember = "Member"
	ContactTypeOther  = "Other"
)

// Contact sources
const (
	SourceAccountPurchase = "account-purchase"
	SourceReservation     = "reservation"
)

type Contact struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName  string    `gorm:"not null" json:"fullName"`
	MatchKey  string    `gorm:"not null;index" json:"-"` // normalised FullName
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Type      string    `gorm:"type:varchar(10);not null" json:"type"`
	Source    string    `gorm:"type:varchar(30)" json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
