package auth

import (
	"errors"
	"regexp"
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
)

// Password rejection reasons, in check order. The order is part of the
// contract: callers always see the first failing reason.
var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordNoLetter = errors.New("password must contain at least one letter")
	ErrPasswordNoDigit  = errors.New("password must contain at least one number")
)

// ValidEmail reports whether s has the local-part@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePassword checks password strength: at least 8 characters, at least
// one letter, at least one digit, checked in that order. Returns nil when
// the password passes.
func ValidatePassword(s string) error {
	if len(s) < 8 {
		return ErrPasswordTooShort
	}
	if !letterPattern.MatchString(s) {
		return ErrPasswordNoLetter
	}
	if !digitPattern.MatchString(s) {
		return ErrPasswordNoDigit
	}
	return nil
}
