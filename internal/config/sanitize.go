package config

import "strings"

// Sanitize returns a copy of s with credentials masked for display.
func Sanitize(s *Settings) *Settings {
	out := *s
	out.AWS.SecretAccessKey = maskSecret(s.AWS.SecretAccessKey)
	out.AWS.SessionToken = maskSecret(s.AWS.SessionToken)
	return &out
}

// maskSecret keeps the first and last two characters of s.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
