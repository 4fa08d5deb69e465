package domain

import "time"

// Deck is a named container for cards. Decks form a forest: ParentID is
// empty for root decks and otherwise names the parent deck. The parent
// graph is acyclic; no deck is its own ancestor.
type Deck struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeleteMode selects how DeleteDeck treats the subtree below the deck.
type DeleteMode string

const (
	// DeleteCascade removes the deck, every descendant deck, and every
	// card owned by any of them.
	DeleteCascade DeleteMode = "cascade"
	// DeleteReparent removes only the named deck and re-attaches its
	// direct children to the deck's former parent.
	DeleteReparent DeleteMode = "reparent"
)

// Valid reports whether m is a known delete mode.
func (m DeleteMode) Valid() bool {
	return m == DeleteCascade || m == DeleteReparent
}

// DeckDeletePreview describes what a cascade delete of a deck would
// remove. It is a read-only computation with no side effects.
type DeckDeletePreview struct {
	DeckName          string   `json:"deckName"`
	ChildDeckCount    int      `json:"childDeckCount"`
	TotalCardCount    int      `json:"totalCardCount"`
	AffectedDeckNames []string `json:"affectedDeckNames"`
}

// CreateDeckInput carries the parameters for deck creation. When Path is
// set it wins over Name/ParentID; a non-empty Name is then appended as
// the final path segment.
type CreateDeckInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	Path     string `json:"path"`
}
