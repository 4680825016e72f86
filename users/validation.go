package users

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinPasswordLength = 6
	MinNameLength     = 2
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return invalid("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return invalid("email", "Please enter a valid email")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "Password is required")
	}
	if len(password) < MinPasswordLength {
		return invalid("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("name", "Name is required")
	}
	if len([]rune(trimmed)) < MinNameLength {
		return invalid("name", fmt.Sprintf("Name must be at least %d characters", MinNameLength))
	}
	return nil
}

// ValidateLogin checks the login form fields in display order.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateRegistration checks the sign-up form fields in display order.
// confirmPassword is only compared when it is supplied.
func ValidateRegistration(name, email, password, confirmPassword string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if confirmPassword != "" && confirmPassword != password {
		return invalid("confirmPassword", "Passwords do not match")
	}
	return nil
}
