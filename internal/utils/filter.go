package utils

import (
	"unicode"
)

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ContainsControlChars reports whether s holds control or unprintable runes
func ContainsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// IsRepetitive checks if a string is a single character repeated 3+ times
// ("aaa", "www")
func IsRepetitive(s string) bool {
	runes := []rune(s)
	if len(runes) <= 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

// IsValidInput checks if a console prefix should be looked up.
// Returns false for strings that are only numbers, hold control characters,
// or are repetitive.
func IsValidInput(s string) bool {
	if len(s) == 0 {
		return false
	}
	if IsOnlyNumbers(s) {
		return false
	}
	if ContainsControlChars(s) {
		return false
	}
	return !IsRepetitive(s)
}
