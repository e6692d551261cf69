package language

import "strings"

// Auto asks the translator to detect the source language from the text.
const Auto = "auto"

// NormalizeTag normalizes a language tag to lowercase and "-" separators.
// Returns an empty string when the value is blank or contains invalid characters.
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	trimmed = strings.ReplaceAll(trimmed, "_", "-")
	parts := strings.Split(trimmed, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !isAlphaNumLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}
	if len(normalized) == 0 || !isAlphaLower(normalized[0]) {
		return ""
	}
	return strings.Join(normalized, "-")
}

// NormalizeCode returns the primary language subtag ("en" from "en-US").
// MyMemory expects two or three letter codes; anything else yields "".
func NormalizeCode(raw string) string {
	tag := NormalizeTag(raw)
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		tag = tag[:dash]
	}
	if len(tag) < 2 || len(tag) > 3 {
		return ""
	}
	return tag
}

// NormalizeSource is NormalizeCode that also accepts Auto.
func NormalizeSource(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), Auto) {
		return Auto
	}
	return NormalizeCode(raw)
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isAlphaNumLower(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
