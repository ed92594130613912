package util

import "unicode/utf8"

// MaxBodySize is the default cap applied by TruncateBody (10KB).
const MaxBodySize = 10 * 1024

// truncatedSuffix marks a shortened body.
const truncatedSuffix = "...(truncated)"

// TruncateBody caps data at maxSize bytes without splitting a UTF-8 sequence,
// appending "...(truncated)" when it shortens. If maxSize <= 0, MaxBodySize
// is used.
func TruncateBody(data string, maxSize int) string {
	if maxSize <= 0 {
		maxSize = MaxBodySize
	}
	if len(data) <= maxSize {
		return data
	}
	cut := maxSize
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut] + truncatedSuffix
}
