package core

import "strings"

// NormalizeStatus maps an externally supplied, unreliable status token to a
// canonical category. Tokens are trimmed and uppercased before comparison.
// REPEATING folds into CURRENT. Unrecognized non-empty tokens also map to
// CURRENT so entries with a garbled status are surfaced rather than dropped.
// An empty token yields ok=false and the caller must fall back to the
// containing list's status.
func NormalizeStatus(raw string) (Category, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return "", false
	}

	switch Category(token) {
	case CategoryCompleted, CategoryPaused, CategoryDropped, CategoryPlanning:
		return Category(token), true
	default:
		// CURRENT, REPEATING, and anything unrecognized.
		return CategoryCurrent, true
	}
}
