package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

// StartSession opens a review session, deck-scoped when deckID is
// non-empty and global otherwise.
func (s *Store) StartSession(deckID string) (domain.ReviewSession, error) {
	if deckID != "" {
		if _, err := s.GetDeck(deckID); err != nil {
			return domain.ReviewSession{}, err
		}
	}

	session := domain.ReviewSession{
		ID:        newID(),
		DeckID:    deckID,
		StartedAt: s.fromMillis(toMillis(s.now())),
	}
	_, err := s.conn.Exec(
		`INSERT INTO review_sessions (id, deck_id, started_at, ended_at, cards_reviewed, cards_repeated)
		 VALUES (?, ?, ?, NULL, 0, 0)`,
		session.ID, nullable(session.DeckID), toMillis(session.StartedAt),
	)
	if err != nil {
		return domain.ReviewSession{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

// EndSession stamps the session's end time and returns the final row.
// A session, once ended, is never reopened; that is caller discipline,
// not a store check.
func (s *Store) EndSession(id string) (domain.ReviewSession, error) {
	if _, err := s.getSession(id); err != nil {
		return domain.ReviewSession{}, err
	}
	_, err := s.conn.Exec(`UPDATE review_sessions SET ended_at = ? WHERE id = ?`,
		toMillis(s.now()), id)
	if err != nil {
		return domain.ReviewSession{}, fmt.Errorf("failed to end session %s: %w", id, err)
	}
	return s.getSession(id)
}

// RecordSessionCard bumps the session's reviewed counter, and the
// repeated counter as well when the card was a priority repeat.
func (s *Store) RecordSessionCard(id string, repeated bool) error {
	if _, err := s.getSession(id); err != nil {
		return err
	}
	query := `UPDATE review_sessions SET cards_reviewed = cards_reviewed + 1 WHERE id = ?`
	if repeated {
		query = `UPDATE review_sessions
		         SET cards_reviewed = cards_reviewed + 1, cards_repeated = cards_repeated + 1
		         WHERE id = ?`
	}
	if _, err := s.conn.Exec(query, id); err != nil {
		return fmt.Errorf("failed to update session %s counters: %w", id, err)
	}
	return nil
}

func (s *Store) getSession(id string) (domain.ReviewSession, error) {
	var (
		session   domain.ReviewSession
		deckID    sql.NullString
		startedAt int64
		endedAt   sql.NullInt64
	)
	err := s.conn.QueryRow(
		`SELECT id, deck_id, started_at, ended_at, cards_reviewed, cards_repeated
		 FROM review_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &deckID, &startedAt, &endedAt, &session.CardsReviewed, &session.CardsRepeated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ReviewSession{}, fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.ReviewSession{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	session.DeckID = deckID.String
	session.StartedAt = s.fromMillis(startedAt)
	if endedAt.Valid {
		t := s.fromMillis(endedAt.Int64)
		session.EndedAt = &t
	}
	return session, nil
}
