package config

import (
	"os"
	"strings"
)

// ResolveSecret expands "env:NAME" and "file:/path" references.
// Anything else is returned as the literal secret value.
func ResolveSecret(value string) string {
	value = strings.TrimSpace(value)
	scheme, rest, found := strings.Cut(value, ":")
	if !found {
		return value
	}
	switch scheme {
	case "env":
		return os.Getenv(rest)
	case "file":
		data, err := os.ReadFile(rest)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(data))
	default:
		return value
	}
}
