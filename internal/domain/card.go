package domain

import "time"

// CardType distinguishes how a card's content is meant to be rendered.
// The core never renders; it only stores the type.
type CardType string

const (
	CardBasic CardType = "basic"
	CardCloze CardType = "cloze"
	CardImage CardType = "image"
)

// Card is a single flashcard owned by exactly one deck.
type Card struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deckId"`
	Type      CardType  `json:"type"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	ClozeText string    `json:"clozeText,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// SourceID and ContentHash are set only on cards imported by the
	// sync process; hand-authored cards leave them empty.
	SourceID    string `json:"sourceId,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

// Scheduling is the per-card memory state driving review scheduling.
// Exactly one row exists per card, created alongside the card.
type Scheduling struct {
	CardID         string     `json:"cardId"`
	N              int        `json:"n"`            // successful-review streak length
	IntervalDays   int        `json:"intervalDays"` // current inter-review interval
	EF             float64    `json:"ef"`           // ease factor, never below 1.3
	DueAt          time.Time  `json:"dueAt"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
}

// CardWithScheduling pairs a card with its scheduling state, as returned
// by the due-card queries.
type CardWithScheduling struct {
	Card       Card       `json:"card"`
	Scheduling Scheduling `json:"scheduling"`
}

// ReviewLog is one entry of the append-only review audit trail. Entries
// are never mutated; they are removed only when their card is deleted.
type ReviewLog struct {
	ID         string    `json:"id"`
	CardID     string    `json:"cardId"`
	ReviewedAt time.Time `json:"reviewedAt"`
	Q          Rating    `json:"q"`
	PrevDueAt  time.Time `json:"prevDueAt"`
	NewDueAt   time.Time `json:"newDueAt"`
	DurationMs *int64    `json:"durationMs"`
}

// CreateCardInput carries the parameters for card creation.
type CreateCardInput struct {
	DeckID    string   `json:"deckId"`
	Type      CardType `json:"type"`
	Front     string   `json:"front"`
	Back      string   `json:"back"`
	ClozeText string   `json:"clozeText"`
	Tags      []string `json:"tags"`

	// Set by the sync process for imported cards.
	SourceID    string `json:"-"`
	ContentHash string `json:"-"`
}
