// models/notification_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Type         string         `gorm:"type:varchar(20);index" json:"type"` // batch_summary, renewal
	AccountID    *uuid.UUID     `gorm:"type:uuid;index" json:"accountId,omitempty"`
	BatchID      *uuid.UUID     `gorm:"type:uuid;index" json:"batchId,omitempty"`
	Recipient    string         `json:"recipient"`
	Message      string         `gorm:"type:text" json:"message"`
	Payload      datatypes.JSON `json:"payload"`
	Status       string         `gorm:"type:varchar(20)" json:"status"` // sent, failed, logged
	ErrorMessage string         `gorm:"type:text" json:"error,omitempty"`
	Channel      string         `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms, log
	SentAt       time.Time      `json:"sentAt"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (n *NotificationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
