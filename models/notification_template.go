package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotifyBatchSummary = "batch_summary"
	NotifyRenewal      = "renewal"
)

type NotificationTemplate struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Type      string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"type"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
