// services/notifier.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateUnits is the number of units booked on one date.
type DateUnits struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
}

// Notification is the payload handed to a Dispatcher.
type Notification struct {
	Type        string           `json:"type"`
	Customer    string           `json:"customer"`
	Recipient   string           `json:"recipient,omitempty"`
	Dates       []DateUnits      `json:"dates,omitempty"`
	TotalUnits  int              `json:"totalUnits"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Balances    *DeductionResult `json:"balances,omitempty"`
	StaffID     uuid.UUID        `json:"staffId"`
	AccountID   *uuid.UUID       `json:"accountId,omitempty"`
	BatchID     *uuid.UUID       `json:"batchId,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Dispatcher delivers notifications. It reports success but callers never
// fail because of it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) bool
}

// MessageCreator is the part of the Twilio API used to send messages.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

var defaultTemplates = map[string]string{
	models.NotifyBatchSummary: "Lunch booking for [CustomerName]: [Units] meal(s) on [Dates]. Total [Amount]. [Balance]",
	models.NotifyRenewal:      "Hi [CustomerName], your lunch card has [Balance] meal(s) left. Ask at the front desk to renew.",
}

// NotificationService sends notifications through Twilio when a sender is
// configured and records every attempt in notification_logs.
type NotificationService struct {
	db               *gorm.DB
	sender           MessageCreator
	smsFrom          string
	whatsAppFrom     string
	defaultRecipient string
}

func NewNotificationService(db *gorm.DB, sender MessageCreator, smsFrom, whatsAppFrom, defaultRecipient string) *NotificationService {
	return &NotificationService{
		db:               db,
		sender:           sender,
		smsFrom:          smsFrom,
		whatsAppFrom:     whatsAppFrom,
		defaultRecipient: defaultRecipient,
	}
}

func (s *NotificationService) Dispatch(ctx context.Context, n Notification) bool {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	recipient := n.Recipient
	if recipient == "" {
		recipient = s.defaultRecipient
	}

	message, err := s.render(ctx, n)
	if err != nil {
		log.Printf("[NOTIFY] template for %s unavailable: %v", n.Type, err)
	}

	entry := models.NotificationLog{
		Type:      n.Type,
		AccountID: n.AccountID,
		BatchID:   n.BatchID,
		Recipient: recipient,
		Message:   message,
		Status:    "logged",
		Channel:   "log",
		SentAt:    time.Now(),
	}
	if payload, err := json.Marshal(n); err == nil {
		entry.Payload = datatypes.JSON(payload)
	}

	ok := true
	if s.sender != nil && recipient != "" {
		entry.Channel, entry.Status = s.send(recipient, message)
		if entry.Status == "failed" {
			ok = false
			entry.ErrorMessage = "twilio rejected message"
		}
	} else {
		log.Printf("[NOTIFY] %s for %s: %s", n.Type, n.Customer, message)
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[NOTIFY] failed to record %s notification: %v", n.Type, err)
	}
	return ok
}

func (s *NotificationService) send(to, message string) (channel, status string) {
	channel = "sms"
	from := s.smsFrom
	// Use WhatsApp if the number is in E.164 format and a sender exists
	if strings.HasPrefix(to, "+") && s.whatsAppFrom != "" {
		channel = "whatsapp"
		to = "whatsapp:" + to
		from = "whatsapp:" + s.whatsAppFrom
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	resp, err := s.sender.CreateMessage(params)
	if err != nil {
		log.Printf("[NOTIFY] failed to send message to %s: %v", to, err)
		return channel, "failed"
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("[NOTIFY] message sent to %s, SID: %s", to, *resp.Sid)
	}
	return channel, "sent"
}

func (s *NotificationService) render(ctx context.Context, n Notification) (string, error) {
	text := defaultTemplates[n.Type]

	var tmpl models.NotificationTemplate
	err := s.db.WithContext(ctx).Where("type = ? AND is_active = ?", n.Type, true).First(&tmpl).Error
	switch {
	case err == nil:
		text = tmpl.Message
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return RenderMessage(text, n), err
	}
	return RenderMessage(text, n), nil
}

// RenderMessage fills the template placeholders from n.
func RenderMessage(text string, n Notification) string {
	dates := make([]string, 0, len(n.Dates))
	for _, d := range n.Dates {
		dates = append(dates, fmt.Sprintf("%s x%d", d.Date, d.Units))
	}

	balance := ""
	if b := n.Balances; b != nil {
		balance = fmt.Sprintf("Card %d -> %d", b.Primary.Before, b.Primary.After)
		if b.Buffer != nil {
			balance += fmt.Sprintf(", buffer %d -> %d", b.Buffer.Before, b.Buffer.After)
		}
		if n.Type == models.NotifyRenewal {
			balance = fmt.Sprintf("%d", b.Primary.After)
		}
	}

	return strings.TrimSpace(strings.NewReplacer(
		"[CustomerName]", utils.NormalizeName(n.Customer),
		"[Units]", fmt.Sprintf("%d", n.TotalUnits),
		"[Dates]", strings.Join(dates, ", "),
		"[Amount]", n.TotalAmount.StringFixed(2),
		"[Balance]", balance,
	).Replace(text))
}
