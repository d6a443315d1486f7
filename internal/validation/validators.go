package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/todone/todone/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("bucket", validateBucket); err != nil {
		panic(fmt.Sprintf("failed to register bucket validator: %v", err))
	}
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	default:
		return false
	}
}

// validateBucket validates that a string is a valid Bucket enum value.
// Empty means unscheduled and is accepted.
func validateBucket(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Bucket(value) {
	case models.BucketToday, models.BucketWeek, models.Bucket(""):
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'high', 'medium', or 'low')", value)
	}
}

// ValidateBucket validates a Bucket string value
func ValidateBucket(value string) error {
	switch models.Bucket(value) {
	case models.BucketToday, models.BucketWeek, models.Bucket(""):
		return nil
	default:
		return fmt.Errorf("invalid bucket: %s (must be 'today', 'week', or empty)", value)
	}
}
