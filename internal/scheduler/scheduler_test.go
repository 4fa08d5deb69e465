package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func fresh() domain.Scheduling {
	return New("card-1", t0)
}

func TestNewScheduling(t *testing.T) {
	s := fresh()
	if s.N != 0 || s.IntervalDays != 0 {
		t.Errorf("N=%d IntervalDays=%d, want both 0", s.N, s.IntervalDays)
	}
	if s.EF != InitialEase {
		t.Errorf("EF = %v, want %v", s.EF, InitialEase)
	}
	if !s.DueAt.Equal(t0) {
		t.Errorf("DueAt = %v, want %v (immediately due)", s.DueAt, t0)
	}
	if s.LastReviewedAt != nil {
		t.Errorf("LastReviewedAt = %v, want nil", s.LastReviewedAt)
	}
}

func TestAdvanceFailResetsStreak(t *testing.T) {
	for _, q := range []domain.Rating{domain.Again, domain.Hard} {
		s := fresh()
		s.N = 5
		s.IntervalDays = 30

		next := Advance(s, q, t0)
		if next.N != 0 {
			t.Errorf("q=%v: N = %d, want 0", q, next.N)
		}
		if next.IntervalDays != 0 {
			t.Errorf("q=%v: IntervalDays = %d, want 0", q, next.IntervalDays)
		}
	}
}

func TestAdvanceRelearningDelays(t *testing.T) {
	again := Advance(fresh(), domain.Again, t0)
	if want := t0.Add(10 * time.Minute); !again.DueAt.Equal(want) {
		t.Errorf("Again DueAt = %v, want %v", again.DueAt, want)
	}
	hard := Advance(fresh(), domain.Hard, t0)
	if want := t0.Add(30 * time.Minute); !hard.DueAt.Equal(want) {
		t.Errorf("Hard DueAt = %v, want %v", hard.DueAt, want)
	}
}

func TestAdvanceSuccessIncrementsStreak(t *testing.T) {
	for _, q := range []domain.Rating{domain.Good, domain.Easy} {
		s := fresh()
		s.N = 2
		s.IntervalDays = 3

		next := Advance(s, q, t0)
		if next.N != s.N+1 {
			t.Errorf("q=%v: N = %d, want %d", q, next.N, s.N+1)
		}
		if next.EF < MinEase {
			t.Errorf("q=%v: EF = %v, below floor %v", q, next.EF, MinEase)
		}
	}
}

func TestAdvanceIntervalLadder(t *testing.T) {
	s := fresh()
	now := t0

	s = Advance(s, domain.Easy, now)
	if s.IntervalDays != 1 {
		t.Fatalf("first success: IntervalDays = %d, want 1", s.IntervalDays)
	}

	now = s.DueAt
	s = Advance(s, domain.Easy, now)
	if s.IntervalDays != 3 {
		t.Fatalf("second success: IntervalDays = %d, want 3", s.IntervalDays)
	}

	now = s.DueAt
	prev := s
	s = Advance(s, domain.Easy, now)
	want := int(math.Ceil(3 * s.EF)) // third success grows by the updated ease
	if s.IntervalDays != want {
		t.Errorf("third success: IntervalDays = %d, want %d", s.IntervalDays, want)
	}
	if s.IntervalDays <= prev.IntervalDays {
		t.Errorf("interval did not strictly grow: %d -> %d", prev.IntervalDays, s.IntervalDays)
	}
	if want := now.Add(time.Duration(s.IntervalDays) * 24 * time.Hour); !s.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", s.DueAt, want)
	}
}

func TestAdvanceHardPassMultiplier(t *testing.T) {
	base := fresh()
	base.N = 2
	base.IntervalDays = 10

	good := Advance(base, domain.Good, t0)
	easy := Advance(base, domain.Easy, t0)
	if good.IntervalDays >= easy.IntervalDays {
		t.Errorf("hard pass interval %d should be below easy interval %d",
			good.IntervalDays, easy.IntervalDays)
	}
	if want := int(math.Ceil(10 * good.EF * 0.85)); good.IntervalDays != want {
		t.Errorf("hard pass interval = %d, want %d", good.IntervalDays, want)
	}
}

func TestEaseMonotonicInRating(t *testing.T) {
	s := fresh()
	prev := -1.0
	for q := domain.Again; q <= domain.Easy; q++ {
		ef := Advance(s, q, t0).EF
		if ef < prev {
			t.Errorf("EF(%v) = %v, below EF of previous rating %v", q, ef, prev)
		}
		prev = ef
	}
}

func TestEaseNeverBelowFloor(t *testing.T) {
	s := fresh()
	for i := 0; i < 50; i++ {
		s = Advance(s, domain.Again, t0)
		if s.EF < MinEase {
			t.Fatalf("after %d failures EF = %v, below %v", i+1, s.EF, MinEase)
		}
	}
	if s.EF != MinEase {
		t.Errorf("repeated failures should converge to the floor, got %v", s.EF)
	}
}

func TestAdvanceClampsRating(t *testing.T) {
	same := func(a, b domain.Scheduling) bool {
		return a.N == b.N && a.IntervalDays == b.IntervalDays && a.EF == b.EF && a.DueAt.Equal(b.DueAt)
	}
	if low, want := Advance(fresh(), domain.Rating(-7), t0), Advance(fresh(), domain.Again, t0); !same(low, want) {
		t.Errorf("rating below range not clamped to Again: %+v", low)
	}
	if high, want := Advance(fresh(), domain.Rating(99), t0), Advance(fresh(), domain.Easy, t0); !same(high, want) {
		t.Errorf("rating above range not clamped to Easy: %+v", high)
	}
}

func TestAdvanceDeterministicAndPure(t *testing.T) {
	s := fresh()
	s.N = 3
	s.IntervalDays = 7
	before := s

	a := Advance(s, domain.Good, t0)
	b := Advance(s, domain.Good, t0)
	if a.N != b.N || a.IntervalDays != b.IntervalDays || a.EF != b.EF || !a.DueAt.Equal(b.DueAt) {
		t.Errorf("Advance not deterministic: %+v vs %+v", a, b)
	}
	if s != before {
		t.Errorf("Advance mutated its input: %+v", s)
	}
}

func TestAdvanceSetsLastReviewed(t *testing.T) {
	for _, q := range []domain.Rating{domain.Again, domain.Hard, domain.Good, domain.Easy} {
		next := Advance(fresh(), q, t0)
		if next.LastReviewedAt == nil || !next.LastReviewedAt.Equal(t0) {
			t.Errorf("q=%v: LastReviewedAt = %v, want %v", q, next.LastReviewedAt, t0)
		}
	}
}

func TestSnooze(t *testing.T) {
	s := fresh()
	s.N = 4
	s.IntervalDays = 12
	s.EF = 2.1

	next := Snooze(s, 15, t0)
	if want := t0.Add(15 * time.Minute); !next.DueAt.Equal(want) {
		t.Errorf("DueAt = %v, want %v", next.DueAt, want)
	}
	if next.N != s.N || next.IntervalDays != s.IntervalDays || next.EF != s.EF {
		t.Errorf("Snooze touched scheduling state: %+v", next)
	}
}

func TestSnoozeGuardsBadMinutes(t *testing.T) {
	s := fresh()
	for _, minutes := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		next := Snooze(s, minutes, t0)
		if want := t0.Add(DefaultSnoozeMinutes * time.Minute); !next.DueAt.Equal(want) {
			t.Errorf("minutes=%v: DueAt = %v, want default %v", minutes, next.DueAt, want)
		}
	}
	zero := Snooze(s, 0, t0)
	if want := t0.Add(time.Minute); !zero.DueAt.Equal(want) {
		t.Errorf("minutes=0: DueAt = %v, want one-minute floor %v", zero.DueAt, want)
	}
	neg := Snooze(s, -30, t0)
	if want := t0.Add(time.Minute); !neg.DueAt.Equal(want) {
		t.Errorf("minutes=-30: DueAt = %v, want one-minute floor %v", neg.DueAt, want)
	}
}
