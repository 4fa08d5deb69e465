package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

func TestGetStatsEmptyStore(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)
}

func TestGetStatsCounts(t *testing.T) {
	s := newTestStore(t)
	deck, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)

	_, err = s.CreateCard(domain.CreateCardInput{DeckID: deck.ID, Front: "a", Back: "b"})
	require.NoError(t, err)
	dueLater, err := s.CreateCard(domain.CreateCardInput{DeckID: deck.ID, Front: "c", Back: "d"})
	require.NoError(t, err)

	// One review today pushes dueLater past the end of the day.
	_, err = s.ReviewCard(dueLater.ID, domain.Easy, nil)
	require.NoError(t, err)

	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DueNow)
	assert.Equal(t, 1, stats.DueToday)
	assert.Equal(t, 1, stats.ReviewsToday)
	assert.Equal(t, 2, stats.TotalCards)
	assert.Equal(t, 1, stats.ReviewedCards)
	assert.Equal(t, 50, stats.DeckProgress)
	assert.Equal(t, 1, stats.StreakDays)
}

func TestGetStatsDeckFilter(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateDeck(domain.CreateDeckInput{Name: "A"})
	require.NoError(t, err)
	b, err := s.CreateDeck(domain.CreateDeckInput{Name: "B"})
	require.NoError(t, err)
	_, err = s.CreateCard(domain.CreateCardInput{DeckID: a.ID, Front: "a", Back: "b"})
	require.NoError(t, err)
	_, err = s.CreateCard(domain.CreateCardInput{DeckID: b.ID, Front: "c", Back: "d"})
	require.NoError(t, err)

	stats, err := s.GetStats(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCards)
	assert.Equal(t, 1, stats.DueNow)
}

func TestRetentionFraction(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)

	// Three easy out of four reviews.
	for _, q := range []domain.Rating{domain.Easy, domain.Easy, domain.Again, domain.Easy} {
		_, err := s.ReviewCard(card.ID, q, nil)
		require.NoError(t, err)
	}

	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, stats.Retention, 1e-9)
}

func TestStreakConsecutiveDays(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)

	for _, at := range []time.Time{t0.Add(-day), t0} {
		setClock(s, at)
		_, err := s.ReviewCard(card.ID, domain.Again, nil)
		require.NoError(t, err)
	}

	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.StreakDays)
}

func TestStreakBrokenByGap(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)

	// Reviews three days ago and today; the gap resets the run to one.
	for _, at := range []time.Time{t0.Add(-3 * day), t0} {
		setClock(s, at)
		_, err := s.ReviewCard(card.ID, domain.Again, nil)
		require.NoError(t, err)
	}

	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StreakDays)
}

func TestStreakZeroWithoutTodayReview(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)

	setClock(s, t0.Add(-2*day))
	_, err := s.ReviewCard(card.ID, domain.Again, nil)
	require.NoError(t, err)
	setClock(s, t0)

	stats, err := s.GetStats("")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.StreakDays)
}

func TestNextReviewInfoEmpty(t *testing.T) {
	s := newTestStore(t)
	info, err := s.NextReviewInfo("")
	require.NoError(t, err)
	assert.Nil(t, info.NextDueAt)
	assert.Equal(t, 0, info.NextDueCardCount)
	assert.Equal(t, "no upcoming reviews", info.FormattedTime)
}

func TestNextReviewInfoUpcoming(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)
	_, err := s.SnoozeCard(card.ID, 30)
	require.NoError(t, err)

	info, err := s.NextReviewInfo("")
	require.NoError(t, err)
	require.NotNil(t, info.NextDueAt)
	assert.Equal(t, t0.Add(30*time.Minute), *info.NextDueAt)
	assert.Equal(t, 1, info.NextDueCardCount)
	assert.Equal(t, "in 30 minutes", info.FormattedTime)
}

func TestNextReviewInfoTomorrow(t *testing.T) {
	s := newTestStore(t)
	card := seedCard(t, s)
	_, err := s.ReviewCard(card.ID, domain.Easy, nil)
	require.NoError(t, err)

	info, err := s.NextReviewInfo("")
	require.NoError(t, err)
	assert.Equal(t, "tomorrow", info.FormattedTime)
}

func TestFormatRelativeBuckets(t *testing.T) {
	cases := []struct {
		delta time.Duration
		want  string
	}{
		{30 * time.Second, "now"},
		{5 * time.Minute, "in 5 minutes"},
		{3 * time.Hour, "in 3 hours"},
		{25 * time.Hour, "tomorrow"},
		{73 * time.Hour, "in 3 days"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatRelative(c.delta), "delta %s", c.delta)
	}
}
