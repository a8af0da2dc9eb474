package slice

import "strings"

// Contains reports whether str is an element of slice.
func Contains(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

// SplitCSV splits a comma separated list, trimming blanks and dropping empty items.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// FirstDuplicate returns the first element that appears more than once.
func FirstDuplicate(items []string) (string, bool) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			return item, true
		}
		seen[item] = struct{}{}
	}
	return "", false
}
