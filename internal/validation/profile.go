package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"putevoditel/internal/models"
)

var (
	telephoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	slugRegex      = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ValidateTelephone accepts an empty value or an E.164 number such as +79991234567.
func ValidateTelephone(phone string) error {
	if phone == "" {
		return nil
	}
	if !telephoneRegex.MatchString(phone) {
		return fmt.Errorf("telephone must be in international format, e.g. +79991234567")
	}
	return nil
}

// ValidateScore accepts nil or a characteristic score within the allowed range.
func ValidateScore(field string, score *int) error {
	if score == nil {
		return nil
	}
	if *score < models.MinScore || *score > models.MaxScore {
		return fmt.Errorf("%s must be between %d and %d", field, models.MinScore, models.MaxScore)
	}
	return nil
}

// ValidateLength checks that value is at most max characters long.
func ValidateLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}

// ValidateRequired rejects an empty value and enforces max length.
func ValidateRequired(field, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	return ValidateLength(field, value, max)
}

// ValidateSlug checks the shape of a public user identifier.
func ValidateSlug(slug string) error {
	if len(slug) != models.SlugLength || !slugRegex.MatchString(slug) {
		return fmt.Errorf("invalid slug")
	}
	return nil
}
