// Package scheduler computes the next scheduling state for a card from
// its current state, a quality rating, and the review time. It is pure:
// no I/O, no clock reads, and the input state is never mutated, so the
// review log can be replayed through Advance to reconstruct state.
package scheduler

import (
	"math"
	"time"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

const (
	// MinEase is the floor for the ease factor.
	MinEase = 1.3
	// InitialEase is the ease factor for a fresh card.
	InitialEase = 2.5
	// DefaultSnoozeMinutes is the nominal snooze delay applied when the
	// caller passes a non-finite value.
	DefaultSnoozeMinutes = 10

	day = 24 * time.Hour
)

// sm2Quality maps the 0-3 rating onto the 0-5 SM-2 quality scale used
// by the ease update, giving a smoother ease curve than the raw rating.
var sm2Quality = [4]int{0, 2, 4, 5}

// New returns the scheduling state for a freshly created card: zero
// streak and interval, default ease, due immediately.
func New(cardID string, now time.Time) domain.Scheduling {
	return domain.Scheduling{
		CardID:       cardID,
		N:            0,
		IntervalDays: 0,
		EF:           InitialEase,
		DueAt:        now,
	}
}

// Advance applies one review with the given rating at the given time.
// Ratings outside [Again, Easy] are clamped, not rejected.
//
// A failed review (Again or Hard) resets the streak and interval and
// schedules a short relearning delay: 10 minutes for Again, 30 for
// Hard. A successful review (Good or Easy) grows the interval along the
// ladder 1 day, 3 days, then ceil(previous * ease * multiplier) with a
// 0.85 multiplier for the "hard pass" Good rating. The ease factor is
// updated in every branch and never drops below MinEase.
func Advance(cur domain.Scheduling, q domain.Rating, now time.Time) domain.Scheduling {
	q = q.Clamp()
	next := cur

	quality := sm2Quality[q]
	ef := cur.EF + (0.1 - float64(5-quality)*(0.08+float64(5-quality)*0.02))
	if ef < MinEase {
		ef = MinEase
	}
	next.EF = ef

	if q <= domain.Hard {
		next.N = 0
		next.IntervalDays = 0
		delay := 10 * time.Minute
		if q == domain.Hard {
			delay = 30 * time.Minute
		}
		next.DueAt = now.Add(delay)
	} else {
		next.N = cur.N + 1
		switch next.N {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 3
		default:
			multiplier := 1.0
			if q == domain.Good {
				multiplier = 0.85
			}
			ivl := int(math.Ceil(float64(cur.IntervalDays) * ef * multiplier))
			if ivl < 1 {
				ivl = 1
			}
			next.IntervalDays = ivl
		}
		next.DueAt = now.Add(time.Duration(next.IntervalDays) * day)
	}

	reviewed := now
	next.LastReviewedAt = &reviewed
	return next
}

// Snooze pushes the card's due time forward by the given number of
// minutes without touching streak, interval, or ease. Non-finite minutes
// fall back to DefaultSnoozeMinutes; the delay is floored at one minute.
// Snooze never fails.
func Snooze(cur domain.Scheduling, minutes float64, now time.Time) domain.Scheduling {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		minutes = DefaultSnoozeMinutes
	}
	if minutes < 1 {
		minutes = 1
	}
	next := cur
	next.DueAt = now.Add(time.Duration(minutes * float64(time.Minute)))
	return next
}
