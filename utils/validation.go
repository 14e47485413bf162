// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(CleanPhone(phone))
}

// CleanPhone strips spaces, dashes and parentheses.
func CleanPhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// NormalizeName collapses runs of whitespace and trims the ends.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
