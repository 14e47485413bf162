package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lunchdesk-backend/models"
	"lunchdesk-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountSummary is one row of a balance search.
type AccountSummary struct {
	ID             uuid.UUID `json:"id"`
	HolderName     string    `json:"holderName"`
	Phone          string    `json:"phone"`
	TotalUnits     int       `json:"totalUnits"`
	RemainingUnits int       `json:"remainingUnits"`
	IsMember       bool      `json:"memberStatus"`
}

// AccountDetail is an account together with the reservations drawn on it,
// newest first.
type AccountDetail struct {
	Account models.Account       `json:"account"`
	History []models.Reservation `json:"history"`
}

type BalanceLookup struct {
	db *gorm.DB
}

func NewBalanceLookup(db *gorm.DB) *BalanceLookup {
	return &BalanceLookup{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Search finds accounts by holder name (every word must match) or, for a
// single word, by phone. An empty term lists accounts with units left.
func (l *BalanceLookup) Search(ctx context.Context, term string) ([]AccountSummary, error) {
	query := l.db.WithContext(ctx).Model(&models.Account{})

	words := strings.Fields(strings.ToLower(term))
	switch len(words) {
	case 0:
		query = query.Where("remaining_units > 0")
	case 1:
		phone := utils.CleanPhone(words[0])
		if phone == "" {
			phone = words[0]
		}
		query = query.Where(`LOWER(holder_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\'`,
			containsPattern(words[0]), containsPattern(phone))
	default:
		for _, w := range words {
			query = query.Where(`LOWER(holder_name) LIKE ? ESCAPE '\'`, containsPattern(w))
		}
	}

	var accounts []models.Account
	if err := query.Order("holder_name ASC").Order("purchased_at DESC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}

	grouped := GroupByHolder(accounts)
	out := make([]AccountSummary, 0, len(grouped))
	for _, a := range grouped {
		out = append(out, AccountSummary{
			ID:             a.ID,
			HolderName:     a.HolderName,
			Phone:          a.Phone,
			TotalUnits:     a.TotalUnits,
			RemainingUnits: a.RemainingUnits,
			IsMember:       a.IsMember,
		})
	}
	return out, nil
}

// GroupByHolder groups accounts by lower-cased holder name. A holder with
// any positive balance keeps only those accounts; a holder with none keeps
// only the most recently purchased one. Group order follows first
// appearance in the input.
func GroupByHolder(accounts []models.Account) []models.Account {
	var order []string
	groups := make(map[string][]models.Account)
	for _, a := range accounts {
		key := strings.ToLower(utils.NormalizeName(a.HolderName))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], a)
	}

	var out []models.Account
	for _, key := range order {
		group := groups[key]
		var positive []models.Account
		latest := group[0]
		for _, a := range group {
			if a.RemainingUnits > 0 {
				positive = append(positive, a)
			}
			if a.PurchasedAt.After(latest.PurchasedAt) {
				latest = a
			}
		}
		if len(positive) > 0 {
			out = append(out, positive...)
		} else {
			out = append(out, latest)
		}
	}
	return out
}

// Get returns an account and the reservations that reference it.
func (l *BalanceLookup) Get(ctx context.Context, id uuid.UUID) (*AccountDetail, error) {
	db := l.db.WithContext(ctx)

	var detail AccountDetail
	if err := db.First(&detail.Account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := db.Where("account_id = ? OR buffer_account_id = ?", id, id).
		Order("created_at DESC").
		Find(&detail.History).Error; err != nil {
		return nil, fmt.Errorf("account history: %w", err)
	}
	return &detail, nil
}
