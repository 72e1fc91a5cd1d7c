// Package fileid derives stable presentation IDs for decks picked up from
// watched inbox directories.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "deck:"

// DeckID returns a deterministic catalog ID for the deck at the given path.
// The same path always yields the same ID, so re-converting a watched file
// updates its record instead of accumulating duplicates, and a removed file
// can be evicted by path alone.
func DeckID(path string) string {
	normalized := filepath.Clean(path)
	sum := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(sum[:])
}
