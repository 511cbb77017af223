package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

// Payload size limits (in bytes)
const (
	MaxLaunchDataSize = 64 * 1024 // 64KB - data handed to a launched app
	MaxLaunchDepth    = 16
)

// String length limits
const (
	MaxIDLength       = 128
	MaxNameLength     = 256
	MaxCategoryLength = 64
	MaxURLLength      = 4096
	MaxRelatedApps    = 20
)

// Size limits for registrations
const (
	MaxWindowDimension = 16384
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// CategoryPattern allows lowercase letters, numbers and hyphens
	CategoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	if size := len(data); size > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateValue encodes v and checks the encoded size
func (v *JSONSizeValidator) ValidateValue(value interface{}) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	return v.ValidateSize(data)
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateLaunchData bounds the size and nesting of data handed to an app
func ValidateLaunchData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}
	if err := NewJSONSizeValidator(MaxLaunchDataSize).ValidateValue(data); err != nil {
		return fmt.Errorf("launch data: %w", err)
	}
	if err := ValidateJSONDepth(data, MaxLaunchDepth); err != nil {
		return fmt.Errorf("launch data: %w", err)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateName validates a name field
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	if category != "" && !CategoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateLocation validates a raw location URL before parsing
func ValidateLocation(raw string) error {
	if err := ValidateString(raw, "url", 1, MaxURLLength, true); err != nil {
		return err
	}
	if !strings.HasPrefix(raw, "/") {
		return fmt.Errorf("url must be a path starting with /")
	}
	return nil
}

// ValidateRegistration checks an app registration submitted from outside
func ValidateRegistration(reg types.AppRegistration) error {
	if err := ValidateID(reg.ID, "id", true); err != nil {
		return err
	}
	if err := ValidateName(reg.Name, "name"); err != nil {
		return err
	}
	if err := ValidateCategory(reg.Category, false); err != nil {
		return err
	}
	if err := validateSize(reg.DefaultSize, "default_size"); err != nil {
		return err
	}
	if err := validateSize(reg.MinSize, "min_size"); err != nil {
		return err
	}
	if len(reg.Related) > MaxRelatedApps {
		return fmt.Errorf("too many related apps (maximum %d)", MaxRelatedApps)
	}
	for i, related := range reg.Related {
		if err := ValidateID(related, fmt.Sprintf("related[%d]", i), true); err != nil {
			return err
		}
	}
	return nil
}

func validateSize(s types.Size, fieldName string) error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%s must not be negative", fieldName)
	}
	if s.Width > MaxWindowDimension || s.Height > MaxWindowDimension {
		return fmt.Errorf("%s must not exceed %d", fieldName, MaxWindowDimension)
	}
	return nil
}
