package config

import (
	"fmt"
	"log"

	"lunchdesk-backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the record store selected by the settings and keeps it
// in DB.
func ConnectDB(s *Settings) error {
	var dialector gorm.Dialector
	switch s.DBDriver {
	case "postgres":
		dialector = postgres.Open(s.DBURL)
	case "sqlite":
		dialector = sqlite.Open(s.DBURL)
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if s.DBDriver == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
	}

	DB = db
	log.Printf("Connected to %s record store", s.DBDriver)
	return nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Contact{},
		&models.Reservation{},
		&models.BatchTransaction{},
		&models.MealPrice{},
		&models.NotificationTemplate{},
		&models.NotificationLog{},
	)
}
