package utils

import (
	"encoding/hex"
	"strings"
)

const addressHexLen = 40 // 20 bytes

// IsValidAddress reports whether s is a syntactically valid 0x-prefixed
// 20-byte hex chain address.
func IsValidAddress(s string) bool {
	if len(s) != addressHexLen+2 {
		return false
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// NormalizeAddress lowers a valid address to its canonical form. Invalid
// input is returned unchanged.
func NormalizeAddress(s string) string {
	if !IsValidAddress(s) {
		return s
	}
	return strings.ToLower(s)
}
