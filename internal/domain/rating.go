package domain

import "fmt"

// Rating is the user's assessment of recall quality for a review.
type Rating int

const (
	Again Rating = iota // complete failure to recall
	Hard                // recalled only partially
	Good                // recalled with effort
	Easy                // recalled without effort
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// Clamp forces r into the valid [Again, Easy] range. Out-of-range
// ratings are clamped, never rejected.
func (r Rating) Clamp() Rating {
	if r < Again {
		return Again
	}
	if r > Easy {
		return Easy
	}
	return r
}

// String returns the name of the rating ("Again", "Hard", "Good", "Easy").
// For out-of-range values it returns "Rating(n)".
func (r Rating) String() string {
	if r >= Again && r <= Easy {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}
