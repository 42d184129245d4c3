package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Normalize joins the card's sides after cleaning each one: trimmed,
// lowercased and with CRLF line endings folded to LF.
func Normalize(card domain.Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	// The separator keeps "ab"+"c" and "a"+"bc" apart.
	return normalizePart(card.Front) + "\n" + normalizePart(card.Back)
}

// Of returns the hex SHA-256 of the card's normalized text. Imported cards are
// matched against what is already in the deck by this value.
func Of(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
