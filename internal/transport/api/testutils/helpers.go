package testutils

import "strings"

// OverBytesUnderRunes строка, которая длиннее maxBytes в байтах, но укладывается в maxBytes по рунам.
// Ей проверяется тэг max_bytes.
func OverBytesUnderRunes(maxBytes int) string {
	const symbol = "😁" // 4 байта, 1 руна
	return strings.Repeat(symbol, maxBytes/len(symbol)+1)
}
