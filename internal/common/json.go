package common

import "strings"

// ExtractJSONObject rescues a JSON object from model output that wraps it
// in prose or markdown fences. Returns the substring from the first '{' to
// the last '}', or the input unchanged when no braces are found.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// ExtractJSONArray is the array counterpart of ExtractJSONObject
func ExtractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
