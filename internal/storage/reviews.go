package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pleko-script/CardCrafter/internal/domain"
	"github.com/Pleko-script/CardCrafter/internal/scheduler"
)

const dueSelect = `
	SELECT c.id, c.deck_id, c.type, c.front, c.back, c.cloze_text, c.tags_json,
	       c.source_id, c.content_hash, c.created_at, c.updated_at,
	       s.n, s.interval_days, s.ef, s.due_at, s.last_reviewed_at
	FROM cards c
	JOIN scheduling s ON s.card_id = c.id`

// DueCard returns the card with the smallest due time at or before now,
// restricted to the deck when deckID is non-empty (exact deck, not
// subtree). Ties on due time break on card id, so the result is
// deterministic for a fixed store state. Returns nil when nothing is
// due.
func (s *Store) DueCard(deckID string) (*domain.CardWithScheduling, error) {
	row := s.conn.QueryRow(
		dueSelect+`
		WHERE s.due_at <= ? AND (? = '' OR c.deck_id = ?)
		ORDER BY s.due_at ASC, c.id ASC
		LIMIT 1`,
		toMillis(s.now()), deckID, deckID,
	)
	return s.scanDueCard(row)
}

// DueCardWithPriority prefers a uniformly random card from priorityIDs
// that also satisfies the deck filter, regardless of its due time; when
// none matches it falls back to DueCard. This lets a caller repeat
// recently failed cards ahead of their natural schedule.
func (s *Store) DueCardWithPriority(deckID string, priorityIDs []string) (*domain.CardWithScheduling, error) {
	if len(priorityIDs) > 0 {
		args := toArgs(priorityIDs)
		args = append(args, deckID, deckID)
		row := s.conn.QueryRow(
			dueSelect+`
			WHERE c.id IN (`+placeholders(len(priorityIDs))+`) AND (? = '' OR c.deck_id = ?)
			ORDER BY RANDOM()
			LIMIT 1`,
			args...,
		)
		card, err := s.scanDueCard(row)
		if err != nil {
			return nil, err
		}
		if card != nil {
			return card, nil
		}
	}
	return s.DueCard(deckID)
}

// ReviewCard applies one review: it advances the card's scheduling
// state and appends the review-log entry in a single transaction, so a
// reader never observes one without the other. A missing scheduling row
// reports domain.ErrNotFound; that signals an inconsistent store, since
// CreateCard always writes one.
func (s *Store) ReviewCard(cardID string, q domain.Rating, durationMs *int64) (domain.Scheduling, error) {
	var next domain.Scheduling
	err := s.inTx(func(tx *sql.Tx) error {
		current, err := s.getScheduling(tx, cardID)
		if err != nil {
			return err
		}

		now := s.fromMillis(toMillis(s.now()))
		next = scheduler.Advance(current, q, now)

		_, err = tx.Exec(
			`UPDATE scheduling
			 SET n = ?, interval_days = ?, ef = ?, due_at = ?, last_reviewed_at = ?
			 WHERE card_id = ?`,
			next.N, next.IntervalDays, next.EF, toMillis(next.DueAt), toMillis(now), cardID,
		)
		if err != nil {
			return fmt.Errorf("failed to update scheduling for card %s: %w", cardID, err)
		}

		var duration any
		if durationMs != nil {
			duration = *durationMs
		}
		_, err = tx.Exec(
			`INSERT INTO review_logs (id, card_id, reviewed_at, q, prev_due_at, new_due_at, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			newID(), cardID, toMillis(now), int(q.Clamp()),
			toMillis(current.DueAt), toMillis(next.DueAt), duration,
		)
		if err != nil {
			return fmt.Errorf("failed to append review log for card %s: %w", cardID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Scheduling{}, err
	}
	return next, nil
}

// SnoozeCard pushes a card's due time forward by the given minutes via
// scheduler.Snooze, persisting only the due time. Same not-found
// contract as ReviewCard.
func (s *Store) SnoozeCard(cardID string, minutes float64) (domain.Scheduling, error) {
	current, err := s.getScheduling(s.conn, cardID)
	if err != nil {
		return domain.Scheduling{}, err
	}

	next := scheduler.Snooze(current, minutes, s.fromMillis(toMillis(s.now())))
	_, err = s.conn.Exec(`UPDATE scheduling SET due_at = ? WHERE card_id = ?`,
		toMillis(next.DueAt), cardID)
	if err != nil {
		return domain.Scheduling{}, fmt.Errorf("failed to snooze card %s: %w", cardID, err)
	}
	return next, nil
}

// GetScheduling returns a card's scheduling state, or
// domain.ErrNotFound when no row exists.
func (s *Store) GetScheduling(cardID string) (domain.Scheduling, error) {
	return s.getScheduling(s.conn, cardID)
}

func (s *Store) getScheduling(q querier, cardID string) (domain.Scheduling, error) {
	var (
		sched        domain.Scheduling
		dueAt        int64
		lastReviewed sql.NullInt64
	)
	err := q.QueryRow(
		`SELECT card_id, n, interval_days, ef, due_at, last_reviewed_at FROM scheduling WHERE card_id = ?`,
		cardID,
	).Scan(&sched.CardID, &sched.N, &sched.IntervalDays, &sched.EF, &dueAt, &lastReviewed)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Scheduling{}, fmt.Errorf("%w: scheduling for card %s", domain.ErrNotFound, cardID)
	}
	if err != nil {
		return domain.Scheduling{}, fmt.Errorf("failed to load scheduling for card %s: %w", cardID, err)
	}
	sched.DueAt = s.fromMillis(dueAt)
	if lastReviewed.Valid {
		t := s.fromMillis(lastReviewed.Int64)
		sched.LastReviewedAt = &t
	}
	return sched, nil
}

// ListReviewLogs returns a card's review history, newest first.
func (s *Store) ListReviewLogs(cardID string) ([]domain.ReviewLog, error) {
	rows, err := s.conn.Query(
		`SELECT id, card_id, reviewed_at, q, prev_due_at, new_due_at, duration_ms
		 FROM review_logs WHERE card_id = ? ORDER BY reviewed_at DESC, id`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list review logs for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			log        domain.ReviewLog
			reviewedAt int64
			prevDueAt  sql.NullInt64
			newDueAt   sql.NullInt64
			duration   sql.NullInt64
			q          int
		)
		err := rows.Scan(&log.ID, &log.CardID, &reviewedAt, &q, &prevDueAt, &newDueAt, &duration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		log.ReviewedAt = s.fromMillis(reviewedAt)
		log.Q = domain.Rating(q)
		if prevDueAt.Valid {
			log.PrevDueAt = s.fromMillis(prevDueAt.Int64)
		}
		if newDueAt.Valid {
			log.NewDueAt = s.fromMillis(newDueAt.Int64)
		}
		if duration.Valid {
			d := duration.Int64
			log.DurationMs = &d
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// scanDueCard maps a joined card+scheduling row; sql.ErrNoRows becomes
// a nil result, not an error.
func (s *Store) scanDueCard(row *sql.Row) (*domain.CardWithScheduling, error) {
	var (
		card         domain.Card
		cardType     string
		clozeText    sql.NullString
		tagsJSON     string
		sourceID     sql.NullString
		contentHash  sql.NullString
		createdAt    int64
		updatedAt    int64
		sched        domain.Scheduling
		dueAt        int64
		lastReviewed sql.NullInt64
	)
	err := row.Scan(
		&card.ID, &card.DeckID, &cardType, &card.Front, &card.Back, &clozeText, &tagsJSON,
		&sourceID, &contentHash, &createdAt, &updatedAt,
		&sched.N, &sched.IntervalDays, &sched.EF, &dueAt, &lastReviewed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan due card row: %w", err)
	}

	card.Type = domain.CardType(cardType)
	card.ClozeText = clozeText.String
	card.Tags = unmarshalTags(tagsJSON)
	card.SourceID = sourceID.String
	card.ContentHash = contentHash.String
	card.CreatedAt = s.fromMillis(createdAt)
	card.UpdatedAt = s.fromMillis(updatedAt)

	sched.CardID = card.ID
	sched.DueAt = s.fromMillis(dueAt)
	if lastReviewed.Valid {
		t := s.fromMillis(lastReviewed.Int64)
		sched.LastReviewedAt = &t
	}
	return &domain.CardWithScheduling{Card: card, Scheduling: sched}, nil
}
