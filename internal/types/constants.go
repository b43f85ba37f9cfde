package types

import (
	"strings"
)

const ContextUserKey = "user"

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// AllowedOrigins merges the development defaults with the public URL and any
// configured origins, dropping blanks and duplicates.
func AllowedOrigins(publicURL string, configured []string) []string {
	origins := make([]string, 0, len(defaultOrigins)+len(configured)+1)
	seen := make(map[string]bool)

	add := func(origin string) {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" || seen[trimmed] {
			return
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}

	for _, origin := range defaultOrigins {
		add(origin)
	}
	add(publicURL)
	for _, origin := range configured {
		add(origin)
	}

	return origins
}

func OriginAllowed(allowed []string, origin string) bool {
	for _, candidate := range allowed {
		if origin == candidate {
			return true
		}
	}
	return false
}
