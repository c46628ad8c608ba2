package auth

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern     = regexp.MustCompile(`^[0-9]{11}$`)
	passwordCharset  = regexp.MustCompile(`^[a-zA-Z\d\W]{8,}$`)
	passwordRequired = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`\d`),
	}
)

// ValidationError lists the offending fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type fieldErrors map[string]string

func (f fieldErrors) check(ok bool, field, reason string) {
	if !ok {
		if _, seen := f[field]; !seen {
			f[field] = reason
		}
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPassword requires at least eight characters with a lower-case letter,
// an upper-case letter and a digit. Underscores are rejected.
func ValidPassword(s string) bool {
	if !passwordCharset.MatchString(s) {
		return false
	}
	for _, re := range passwordRequired {
		if !re.MatchString(s) {
			return false
		}
	}
	return true
}

// ValidPhone requires exactly eleven digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
