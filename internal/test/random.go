package test

import (
	"math/rand/v2"
	"strings"
)

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RandomASCIIString returns an upper-case alphanumeric string with a length in
// [minLen, maxLen]. Ambiguous characters (0, O, 1, I) are never produced.
func RandomASCIIString(minLen, maxLen int) string {
	minLen = max(minLen, 1)
	maxLen = max(maxLen, minLen)
	length := minLen + rand.IntN(maxLen-minLen+1)

	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(referenceAlphabet[rand.IntN(len(referenceAlphabet))])
	}
	return b.String()
}

// RandomReference builds a gateway or carrier style reference such as "GIG-7KQ2MZ".
func RandomReference(prefix string, length int) string {
	return prefix + "-" + RandomASCIIString(length, length)
}
