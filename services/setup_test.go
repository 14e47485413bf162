package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"lunchdesk-backend/config"
	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday.
var testNow = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

// newTestDB opens a private in-memory store. One connection keeps the
// memory database alive for the whole test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func createAccount(t *testing.T, db *gorm.DB, name string, total, remaining int) models.Account {
	t.Helper()
	account := models.Account{
		HolderName:     name,
		TotalUnits:     total,
		RemainingUnits: remaining,
		PurchasedAt:    testNow,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account %q: %v", name, err)
	}
	return account
}

func remaining(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}
	return account.RemainingUnits
}

// recordingDispatcher keeps every notification it is given.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []Notification
	fail bool
}

func (r *recordingDispatcher) Dispatch(_ context.Context, n Notification) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return !r.fail
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type bookingFixture struct {
	db       *gorm.DB
	svc      *BookingService
	notifier *recordingDispatcher
	now      time.Time
	staff    uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		db:       newTestDB(t),
		notifier: &recordingDispatcher{},
		now:      testNow,
		staff:    uuid.New(),
	}
	v := NewValidator(time.UTC, 20)
	v.Now = func() time.Time { return f.now }
	f.svc = NewBookingService(
		f.db,
		v,
		NewDeductionEngine(f.db, 3),
		NewContactDirectory(f.db),
		NewPriceBook(f.db),
		f.notifier,
		30*time.Minute,
	)
	return f
}
