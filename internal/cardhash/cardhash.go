// Package cardhash derives a stable content identity for imported
// cards, so a re-sync recognizes cards it has already created.
package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize concatenates a card's content after cleaning each part: it
// lowercases, trims whitespace, and normalizes line endings, joining
// the fields with newlines so adjacent fields cannot run together.
func Normalize(front, back, cloze string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}
	return strings.Join([]string{
		normalizePart(front),
		normalizePart(back),
		normalizePart(cloze),
	}, "\n")
}

// Hash normalizes the card content and returns its SHA-256 hash as a
// hex string.
func Hash(front, back, cloze string) string {
	sum := sha256.Sum256([]byte(Normalize(front, back, cloze)))
	return fmt.Sprintf("%x", sum)
}
