// Package textutil provides text measuring helpers for Telegram messages.
//
// Telegram counts message length in UTF-16 code units, not bytes or Unicode
// code points, so limits are checked here rather than with len().
package textutil

import "unicode/utf16"

// TelegramMessageLimit is the maximum sendMessage text length in UTF-16 units.
const TelegramMessageLimit = 4096

// UTF16Len returns the number of UTF-16 code units needed to encode the string.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// UTF16Slice returns the longest prefix of s that fits within maxUnits UTF-16
// code units without splitting a surrogate pair.
func UTF16Slice(s string, maxUnits int) string {
	if maxUnits <= 0 {
		return ""
	}

	units := 0

	for i, r := range s {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return s[:i]
		}

		units += runeUnits
	}

	return s
}
