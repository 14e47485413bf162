package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactDirectory links accounts and reservations to a Contact, creating
// the contact the first time a name is seen.
type ContactDirectory struct {
	db *gorm.DB
}

func NewContactDirectory(db *gorm.DB) *ContactDirectory {
	return &ContactDirectory{db: db}
}

// Resolve returns the id of the contact matching name, creating it when
// missing. Failures are logged and yield nil; they never block the caller.
func (d *ContactDirectory) Resolve(ctx context.Context, name string, isMember bool, source string) *uuid.UUID {
	fullName := utils.NormalizeName(name)
	if fullName == "" {
		return nil
	}
	key := strings.ToLower(fullName)
	db := d.db.WithContext(ctx)

	var contact models.Contact
	err := db.Where("match_key = ?", key).First(&contact).Error
	if err == nil {
		return &contact.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[CONTACT] lookup %q failed: %v", fullName, err)
		return nil
	}

	first, last := SplitName(fullName)
	contact = models.Contact{
		FullName:  fullName,
		MatchKey:  key,
		FirstName: first,
		LastName:  last,
		Type:      models.ContactTypeOther,
		Source:    source,
	}
	if isMember {
		contact.Type = models.ContactTypeMember
	}
	if err := db.Create(&contact).Error; err != nil {
		log.Printf("[CONTACT] create %q failed: %v", fullName, err)
		return nil
	}
	log.Printf("[CONTACT] created %s contact %q from %s", contact.Type, fullName, source)
	return &contact.ID
}

// SplitName splits on the first whitespace into first and last name.
func SplitName(fullName string) (first, last string) {
	fullName = strings.TrimSpace(fullName)
	if i := strings.IndexFunc(fullName, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
		return fullName[:i], strings.TrimSpace(fullName[i+1:])
	}
	return fullName, ""
}
