package fallback

import "strings"

// SplitAddress extracts city and country from a comma-separated full
// address: city is segment 1 and country is segment 2, trimmed. This is a
// best-effort heuristic, not an address parser; missing segments yield empty
// strings, never an error.
func SplitAddress(full string) (city, country string) {
	segments := strings.Split(full, ",")
	if len(segments) > 1 {
		city = strings.TrimSpace(segments[1])
	}
	if len(segments) > 2 {
		country = strings.TrimSpace(segments[2])
	}
	return city, country
}
