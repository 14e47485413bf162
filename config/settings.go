package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Settings struct {
	Port     string
	DBDriver string
	DBURL    string

	Location        *time.Location
	MaxUnitsPerDay  int
	BatchTokenTTL   time.Duration
	DeductRetries   int
	NotifyTo        string
	RenewalLimit    int
	RenewalSchedule string
	CORSOrigins     []string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioPhoneNumber    string
	TwilioWhatsAppNumber string
}

// TwilioEnabled reports whether outbound messages can be sent.
func (s *Settings) TwilioEnabled() bool {
	return s.TwilioAccountSID != "" && s.TwilioAuthToken != ""
}

func Load() (*Settings, error) {
	s := &Settings{
		Port:                 getenv("PORT", "8080"),
		DBDriver:             getenv("DB_DRIVER", "postgres"),
		DBURL:                os.Getenv("DB_URL"),
		NotifyTo:             os.Getenv("NOTIFY_TO"),
		RenewalSchedule:      getenv("RENEWAL_CRON", "0 9 * * 1-5"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}
	if s.DBURL == "" {
		return nil, fmt.Errorf("DB_URL environment variable is required")
	}

	loc, err := time.LoadLocation(getenv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	s.Location = loc

	if s.MaxUnitsPerDay, err = getenvInt("MAX_UNITS_PER_DAY", 20); err != nil {
		return nil, err
	}
	if s.DeductRetries, err = getenvInt("DEDUCTION_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if s.RenewalLimit, err = getenvInt("RENEWAL_THRESHOLD", 2); err != nil {
		return nil, err
	}
	ttl, err := getenvInt("BATCH_TOKEN_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	s.BatchTokenTTL = time.Duration(ttl) * time.Minute

	origins := getenv("CORS_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			s.CORSOrigins = append(s.CORSOrigins, o)
		}
	}
	return s, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
