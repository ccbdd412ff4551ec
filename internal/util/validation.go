package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// IsISODate checks the YYYY-MM-DD shape only, not the calendar.
func IsISODate(s string) bool {
	return dateRegex.MatchString(s)
}

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MinTrimmedLen reports whether s has at least n characters once trimmed.
func MinTrimmedLen(s string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
}

// CharCount counts characters rather than bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}
