package storage

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

const day = 24 * time.Hour

// retentionWindow is how many of the most recent reviews feed the
// retention figure.
const retentionWindow = 100

// GetStats computes the aggregate statistics snapshot, optionally
// filtered to one deck. Everything is derived fresh from the current
// scheduling table and the review log; nothing is cached, so the result
// always reflects the latest committed write.
func (s *Store) GetStats(deckID string) (domain.Stats, error) {
	now := s.now()
	startOfDay := s.dayStart(now)
	endOfDay := startOfDay.Add(day)

	var stats domain.Stats

	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.DueNow,
			`SELECT COUNT(*) FROM scheduling s JOIN cards c ON c.id = s.card_id
			 WHERE s.due_at <= ? AND (? = '' OR c.deck_id = ?)`,
			[]any{toMillis(now), deckID, deckID}},
		{&stats.DueToday,
			`SELECT COUNT(*) FROM scheduling s JOIN cards c ON c.id = s.card_id
			 WHERE s.due_at <= ? AND (? = '' OR c.deck_id = ?)`,
			[]any{toMillis(endOfDay), deckID, deckID}},
		{&stats.ReviewsToday,
			`SELECT COUNT(*) FROM review_logs r JOIN cards c ON c.id = r.card_id
			 WHERE r.reviewed_at >= ? AND (? = '' OR c.deck_id = ?)`,
			[]any{toMillis(startOfDay), deckID, deckID}},
		{&stats.TotalCards,
			`SELECT COUNT(*) FROM cards WHERE (? = '' OR deck_id = ?)`,
			[]any{deckID, deckID}},
		{&stats.ReviewedCards,
			`SELECT COUNT(*) FROM scheduling s JOIN cards c ON c.id = s.card_id
			 WHERE s.n > 0 AND (? = '' OR c.deck_id = ?)`,
			[]any{deckID, deckID}},
	}
	for _, c := range counts {
		if err := s.conn.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return domain.Stats{}, fmt.Errorf("failed to compute stats count: %w", err)
		}
	}

	retention, err := s.retention(deckID)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.Retention = retention

	streak, err := s.streakDays(deckID, now)
	if err != nil {
		return domain.Stats{}, err
	}
	stats.StreakDays = streak

	if stats.TotalCards > 0 {
		stats.DeckProgress = int(math.Round(100 * float64(stats.ReviewedCards) / float64(stats.TotalCards)))
	}
	return stats, nil
}

// NextReviewInfo reports the earliest due time strictly after now plus
// the count of cards due after now, with a human-readable relative-time
// string. When nothing is due later it returns the sentinel with a nil
// due time.
func (s *Store) NextReviewInfo(deckID string) (domain.NextReviewInfo, error) {
	now := s.now()
	var (
		nextDue sql.NullInt64
		count   int
	)
	err := s.conn.QueryRow(
		`SELECT MIN(s.due_at), COUNT(*) FROM scheduling s JOIN cards c ON c.id = s.card_id
		 WHERE s.due_at > ? AND (? = '' OR c.deck_id = ?)`,
		toMillis(now), deckID, deckID,
	).Scan(&nextDue, &count)
	if err != nil {
		return domain.NextReviewInfo{}, fmt.Errorf("failed to compute next review info: %w", err)
	}

	if !nextDue.Valid {
		return domain.NextReviewInfo{FormattedTime: "no upcoming reviews"}, nil
	}

	at := s.fromMillis(nextDue.Int64)
	return domain.NextReviewInfo{
		NextDueAt:        &at,
		NextDueCardCount: count,
		FormattedTime:    formatRelative(at.Sub(now)),
	}, nil
}

// retention is the fraction of Easy ratings over the most recent
// retentionWindow review-log entries (deck-filtered, newest first).
// Zero when no entries exist.
func (s *Store) retention(deckID string) (float64, error) {
	var good, total sql.NullInt64
	err := s.conn.QueryRow(
		`SELECT SUM(CASE WHEN q >= 3 THEN 1 ELSE 0 END), COUNT(*)
		 FROM (
		   SELECT r.q FROM review_logs r JOIN cards c ON c.id = r.card_id
		   WHERE (? = '' OR c.deck_id = ?)
		   ORDER BY r.reviewed_at DESC
		   LIMIT ?
		 )`,
		deckID, deckID, retentionWindow,
	).Scan(&good, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to compute retention: %w", err)
	}
	if !total.Valid || total.Int64 == 0 {
		return 0, nil
	}
	return float64(good.Int64) / float64(total.Int64), nil
}

// streakDays counts consecutive local calendar days with at least one
// review, ending today. A day without reviews breaks the streak, and a
// streak not touching today counts as zero.
func (s *Store) streakDays(deckID string, now time.Time) (int, error) {
	rows, err := s.conn.Query(
		`SELECT r.reviewed_at FROM review_logs r JOIN cards c ON c.id = r.card_id
		 WHERE (? = '' OR c.deck_id = ?)`,
		deckID, deckID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to load review times: %w", err)
	}
	defer rows.Close()

	daySet := map[time.Time]bool{}
	for rows.Next() {
		var reviewedAt int64
		if err := rows.Scan(&reviewedAt); err != nil {
			return 0, fmt.Errorf("failed to scan review time: %w", err)
		}
		daySet[s.dayStart(s.fromMillis(reviewedAt))] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(daySet) == 0 {
		return 0, nil
	}

	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := s.dayStart(now)
	streak := 0
	for _, d := range days {
		// Rounding absorbs the off-by-an-hour a DST transition puts
		// between local midnights.
		diff := int(math.Round(today.Sub(d).Hours() / 24))
		if diff == streak {
			streak++
		} else if diff > streak {
			break
		}
	}
	return streak, nil
}

// dayStart truncates a time to local midnight in the store's location.
func (s *Store) dayStart(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// formatRelative renders a future delta into the coarse buckets callers
// rely on: at most a minute, under an hour, under a day, exactly one
// day, beyond.
func formatRelative(delta time.Duration) string {
	minutes := int(delta.Minutes())
	hours := int(delta.Hours())
	days := int(delta.Hours() / 24)

	switch {
	case minutes < 1:
		return "now"
	case minutes < 60:
		return fmt.Sprintf("in %d minutes", minutes)
	case hours < 24:
		return fmt.Sprintf("in %d hours", hours)
	case days == 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
