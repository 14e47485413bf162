// services/renewal_service.go
package services

import (
	"context"
	"log"
	"time"

	"lunchdesk-backend/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const renewalCooldown = 7 * 24 * time.Hour

// RenewalService reminds holders whose lunch card is nearly used up and
// expires batch tokens nobody consumed.
type RenewalService struct {
	db        *gorm.DB
	notifier  Dispatcher
	threshold int
	Now       func() time.Time
	cron      *cron.Cron
}

func NewRenewalService(db *gorm.DB, notifier Dispatcher, threshold int) *RenewalService {
	return &RenewalService{
		db:        db,
		notifier:  notifier,
		threshold: threshold,
		Now:       time.Now,
	}
}

// StartScheduler registers the renewal job on spec and the token sweep
// every five minutes.
func (s *RenewalService) StartScheduler(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.SendRenewalReminders(context.Background()) }); err != nil {
		return err
	}
	if _, err := c.AddFunc("*/5 * * * *", func() { s.ExpireBatches(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	log.Printf("[RENEWAL] scheduler started (%s)", spec)
	return nil
}

func (s *RenewalService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SendRenewalReminders notifies every holder with 0 < remaining <= threshold
// who has not been reminded within the cooldown. It returns the number of
// reminders dispatched.
func (s *RenewalService) SendRenewalReminders(ctx context.Context) int {
	if s.threshold <= 0 {
		return 0
	}
	now := s.Now().UTC()
	cutoff := now.Add(-renewalCooldown)

	var accounts []models.Account
	if err := s.db.WithContext(ctx).
		Where("remaining_units > 0 AND remaining_units <= ?", s.threshold).
		Where("phone <> ''").
		Where("last_reminded_at IS NULL OR last_reminded_at < ?", cutoff).
		Find(&accounts).Error; err != nil {
		log.Printf("[RENEWAL] failed to fetch low balance accounts: %v", err)
		return 0
	}

	sent := 0
	for _, account := range accounts {
		id := account.ID
		ok := s.notifier.Dispatch(ctx, Notification{
			Type:      models.NotifyRenewal,
			Customer:  account.HolderName,
			Recipient: account.Phone,
			Balances: &DeductionResult{
				Available: account.RemainingUnits,
				Primary:   BalanceChange{AccountID: id, Before: account.RemainingUnits, After: account.RemainingUnits},
			},
			AccountID: &id,
			Timestamp: now,
		})
		if !ok {
			log.Printf("[RENEWAL] reminder for %s failed", account.HolderName)
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.Account{}).
			Where("id = ?", id).
			Update("last_reminded_at", now).Error; err != nil {
			log.Printf("[RENEWAL] failed to stamp account %s: %v", id, err)
		}
		sent++
	}
	log.Printf("[RENEWAL] %d reminder(s) sent", sent)
	return sent
}

// ExpireBatches closes open batch tokens past their expiry.
func (s *RenewalService) ExpireBatches(ctx context.Context) int64 {
	res := s.db.WithContext(ctx).Model(&models.BatchTransaction{}).
		Where("status = ? AND expires_at <= ?", models.BatchOpen, s.Now().UTC()).
		Update("status", models.BatchExpired)
	if res.Error != nil {
		log.Printf("[RENEWAL] failed to expire batches: %v", res.Error)
		return 0
	}
	if res.RowsAffected > 0 {
		log.Printf("[RENEWAL] expired %d batch token(s)", res.RowsAffected)
	}
	return res.RowsAffected
}
