package domain

import "time"

// Stats is the aggregate snapshot derived from current scheduling state
// plus the review log. It is computed fresh per call, never cached.
type Stats struct {
	DueNow        int     `json:"dueNow"`
	DueToday      int     `json:"dueToday"`
	ReviewsToday  int     `json:"reviewsToday"`
	StreakDays    int     `json:"streakDays"`
	Retention     float64 `json:"retention"` // fraction of Easy over the last 100 reviews
	TotalCards    int     `json:"totalCards"`
	ReviewedCards int     `json:"reviewedCards"`
	DeckProgress  int     `json:"deckProgress"` // percent of cards reviewed at least once
}

// NextReviewInfo describes the next upcoming review: the earliest due
// time strictly after now and how many cards are due after now. When no
// card is due later, NextDueAt is nil and FormattedTime carries the
// no-upcoming-reviews sentinel text.
type NextReviewInfo struct {
	NextDueAt        *time.Time `json:"nextDueAt"`
	NextDueCardCount int        `json:"nextDueCardCount"`
	FormattedTime    string     `json:"formattedTime"`
}

// ReviewSession is ephemeral bookkeeping for one bounded review run,
// deck-scoped or global (empty DeckID). No other entity references it.
type ReviewSession struct {
	ID            string     `json:"id"`
	DeckID        string     `json:"deckId,omitempty"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt"`
	CardsReviewed int        `json:"cardsReviewed"`
	CardsRepeated int        `json:"cardsRepeated"`
}

// Source is a registered card collection: a local directory or a git
// repository of markdown card files that sync reconciles into the store.
type Source struct {
	ID           string     `json:"id"`
	Type         SourceType `json:"type"`
	Path         string     `json:"path"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}

// SourceType distinguishes local directories from git repositories.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)
