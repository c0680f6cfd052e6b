package datamodel

import (
	"strings"
)

// Canonical display values for CQS-owned answers
const (
	CqsYes = "Yes"
	CqsNo  = "No"
	CqsNA  = "N/A"

	// CqsValueUnavailable marks a CQS-owned field whose attribute could not be
	// resolved from the snapshot. The field stays editable as a manual fallback.
	CqsValueUnavailable = "UNAVAILABLE"
)

// NormalizeCqsValue maps a raw attribute value onto the canonical {Yes, No, N/A}
// set, matching common synonyms case-insensitively. ok is false when the raw
// value cannot be interpreted (including empty strings).
func NormalizeCqsValue(raw string) (normalized string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1":
		return CqsYes, true
	case "no", "n", "false", "0":
		return CqsNo, true
	case "na", "n/a", "n-a", "not_applicable", "not applicable":
		return CqsNA, true
	case "":
		return "", false
	}
	return "", false
}

// IsAnsweredValue decides whether a manual-input value counts as an answer.
// Strings must be non-empty after trimming and must not be the literal
// "null"/"undefined" left behind by sloppy frontends. Lists must be non-empty.
// Numbers and booleans count as answered by their mere presence.
func IsAnsweredValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && trimmed != "null" && trimmed != "undefined"
	case []interface{}:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case bool:
		return true
	case float64, float32, int, int32, int64:
		return true
	default:
		// unknown shapes (nested objects) count as present
		return true
	}
}
