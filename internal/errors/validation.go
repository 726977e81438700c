package errors

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a field-specific validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validator provides common validation functions that return AppErrors
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(field, rule, message string, value ...interface{}) {
	var valueStr string
	if len(value) > 0 {
		valueStr = fmt.Sprintf("%v", value[0])
	}

	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   valueStr,
		Rule:    rule,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetErrors returns all validation errors
func (v *Validator) GetErrors() []ValidationError {
	return v.errors
}

// ToAppError converts validation errors to an AppError
func (v *Validator) ToAppError() *AppError {
	if !v.HasErrors() {
		return nil
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}

	appErr := NewError(ErrValidationFailed, "Validation failed")
	appErr.Details = strings.Join(messages, "; ")
	_ = appErr.WithContext("validation_errors", v.errors)

	return appErr
}

// RequiredField validates that a field is not empty
func (v *Validator) RequiredField(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "required", "Field is required", value)
	}
	return v
}

// RequiredList validates that a list has at least one entry
func (v *Validator) RequiredList(field string, values []string) *Validator {
	if len(values) == 0 {
		v.AddError(field, "required", "At least one value is required")
	}
	return v
}

// NoBlankItems validates that no entry of a list is empty or whitespace
func (v *Validator) NoBlankItems(field string, values []string) *Validator {
	for i, value := range values {
		if strings.TrimSpace(value) == "" {
			v.AddError(fmt.Sprintf("%s[%d]", field, i), "blank_item", "Entry cannot be blank", value)
		}
	}
	return v
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.AddError(field, "max_length",
			fmt.Sprintf("Must be at most %d characters long", max), value)
	}
	return v
}

// ValidateURL validates URL format
func (v *Validator) ValidateURL(field, url string) *Validator {
	if url == "" {
		return v
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		v.AddError(field, "url_format", "URL must start with http:// or https://", url)
	}
	return v
}

// ValidatePositiveDuration validates that a duration is greater than zero
func (v *Validator) ValidatePositiveDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		v.AddError(field, "positive_duration", "Must be a positive duration", value)
	}
	return v
}

// ValidateEnum validates that a value is in a list of allowed values
func (v *Validator) ValidateEnum(field, value string, allowedValues []string) *Validator {
	if value == "" {
		return v
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return v
		}
	}

	v.AddError(field, "enum",
		fmt.Sprintf("Must be one of: %s", strings.Join(allowedValues, ", ")), value)
	return v
}

// ValidateProjectPath validates a namespaced repository path such as group/subgroup/repo
func (v *Validator) ValidateProjectPath(field, path string) *Validator {
	if path == "" {
		return v
	}

	if strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		v.AddError(field, "path_slashes", "Repository path cannot start or end with /", path)
	}

	if strings.Contains(path, "//") {
		v.AddError(field, "path_empty_segment", "Repository path cannot contain empty segments", path)
	}

	for _, r := range path {
		if r < 32 || r == 127 || r == ' ' {
			v.AddError(field, "path_chars", "Repository path cannot contain spaces or control characters", path)
			break
		}
	}

	return v
}

// ValidateGitBranchName validates Git branch name format
func (v *Validator) ValidateGitBranchName(field, branchName string) *Validator {
	if branchName == "" {
		return v
	}

	if len(branchName) > 255 {
		v.AddError(field, "branch_length", "Branch name too long (max 255 characters)", branchName)
	}

	// Git branch name rules
	if strings.HasPrefix(branchName, "-") || strings.HasPrefix(branchName, ".") {
		v.AddError(field, "branch_prefix", "Branch name cannot start with - or .", branchName)
	}

	if strings.Contains(branchName, "..") {
		v.AddError(field, "branch_dots", "Branch name cannot contain consecutive dots", branchName)
	}

	invalidChars := []string{" ", "~", "^", ":", "?", "*", "[", "]", "\\"}
	for _, char := range invalidChars {
		if strings.Contains(branchName, char) {
			v.AddError(field, "branch_chars",
				fmt.Sprintf("Branch name cannot contain '%s'", char), branchName)
			break
		}
	}

	return v
}
