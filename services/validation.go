package services

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Content limits, counted in characters
const (
	MaxOpinionLength   = 1000
	MaxCommentLength   = 1000
	MaxGuestbookLength = 500
	MaxTitleLength     = 200
	MaxNicknameLength  = 50
	MinPasswordLength  = 4
)

func trimmed(s string) string { return strings.TrimSpace(s) }

// requireText trims s and checks it is non-empty and at most max runes.
func requireText(field, s string, max int) (string, error) {
	s = trimmed(s)
	if s == "" {
		return "", ValidationError(field + " is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", ValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return s, nil
}

// optionalText trims s and checks it is at most max runes.
func optionalText(field, s string, max int) (string, error) {
	s = trimmed(s)
	if utf8.RuneCountInString(s) > max {
		return "", ValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return s, nil
}

func requirePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// cleanTags trims, drops empties and deduplicates case-insensitively.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = trimmed(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
