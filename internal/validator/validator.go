package validator

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter ISO code")
	ErrInvalidColor    = errors.New("brand color must be a hex color like #2563eb")
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrRequired        = errors.New("required field is missing")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	colorRegex    = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateOptionalEmail accepts an empty value.
func ValidateOptionalEmail(email string) error {
	if email == "" {
		return nil
	}
	return ValidateEmail(email)
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// NormalizeCurrency upper-cases and checks an ISO 4217 style code.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !currencyRegex.MatchString(currency) {
		return "", ErrInvalidCurrency
	}
	return currency, nil
}

func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}

// ValidateURL requires an absolute http(s) URL; empty is allowed.
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrRequired
	}
	return nil
}
