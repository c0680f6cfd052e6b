package internal

import "strings"

// SanitizeString strips line breaks and tabs from externally supplied strings
// before they reach the log output, preventing log forging.
func SanitizeString(s string) string {
	replacer := strings.NewReplacer("\n", "", "\r", "", "\t", " ")
	return replacer.Replace(s)
}

// SanitizeStringArray sanitizes every element of the given slice
func SanitizeStringArray(arr []string) []string {
	sanitized := make([]string, len(arr))
	for i, s := range arr {
		sanitized[i] = SanitizeString(s)
	}
	return sanitized
}
