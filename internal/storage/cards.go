package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Pleko-script/CardCrafter/internal/domain"
	"github.com/Pleko-script/CardCrafter/internal/scheduler"
)

const cardColumns = `id, deck_id, type, front, back, cloze_text, tags_json, source_id, content_hash, created_at, updated_at`

// ListCards returns the cards of a deck, newest created first.
func (s *Store) ListCards(deckID string) ([]domain.Card, error) {
	rows, err := s.conn.Query(
		`SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY created_at DESC, id`,
		deckID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := s.scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// GetCard returns the card with the given id, or domain.ErrNotFound.
func (s *Store) GetCard(id string) (domain.Card, error) {
	row := s.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := s.scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
	}
	return card, err
}

// CreateCard inserts a card and its initial scheduling row in one
// transaction: a card always has scheduling state from the moment it
// exists, due immediately. The owning deck must exist.
func (s *Store) CreateCard(in domain.CreateCardInput) (domain.Card, error) {
	if _, err := s.GetDeck(in.DeckID); err != nil {
		return domain.Card{}, err
	}

	cardType := in.Type
	if cardType == "" {
		cardType = domain.CardBasic
	}
	now := s.fromMillis(toMillis(s.now()))
	card := domain.Card{
		ID:          newID(),
		DeckID:      in.DeckID,
		Type:        cardType,
		Front:       strings.TrimSpace(in.Front),
		Back:        strings.TrimSpace(in.Back),
		ClozeText:   in.ClozeText,
		Tags:        in.Tags,
		SourceID:    in.SourceID,
		ContentHash: in.ContentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if card.Tags == nil {
		card.Tags = []string{}
	}

	err := s.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID, card.DeckID, string(card.Type), card.Front, card.Back,
			nullable(card.ClozeText), marshalTags(card.Tags),
			nullable(card.SourceID), nullable(card.ContentHash),
			toMillis(card.CreatedAt), toMillis(card.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
		sched := scheduler.New(card.ID, now)
		_, err = tx.Exec(
			`INSERT INTO scheduling (card_id, n, interval_days, ef, due_at, last_reviewed_at)
			 VALUES (?, ?, ?, ?, ?, NULL)`,
			sched.CardID, sched.N, sched.IntervalDays, sched.EF, toMillis(sched.DueAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert scheduling for card %s: %w", card.ID, err)
		}
		return nil
	})
	if err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// UpdateCard replaces a card's front, back, and tags and bumps its
// updated timestamp.
func (s *Store) UpdateCard(id, front, back string, tags []string) (domain.Card, error) {
	card, err := s.GetCard(id)
	if err != nil {
		return domain.Card{}, err
	}

	card.Front = strings.TrimSpace(front)
	card.Back = strings.TrimSpace(back)
	if tags != nil {
		card.Tags = tags
	}
	card.UpdatedAt = s.fromMillis(toMillis(s.now()))

	_, err = s.conn.Exec(
		`UPDATE cards SET front = ?, back = ?, tags_json = ?, updated_at = ? WHERE id = ?`,
		card.Front, card.Back, marshalTags(card.Tags), toMillis(card.UpdatedAt), id,
	)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to update card %s: %w", id, err)
	}
	return card, nil
}

// DeleteCard removes a card together with its scheduling row and review
// logs, in one transaction.
func (s *Store) DeleteCard(id string) error {
	if _, err := s.GetCard(id); err != nil {
		return err
	}
	return s.inTx(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM review_logs WHERE card_id = ?`,
			`DELETE FROM scheduling WHERE card_id = ?`,
			`DELETE FROM cards WHERE id = ?`,
		} {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("failed to delete card %s: %w", id, err)
			}
		}
		return nil
	})
}

func (s *Store) scanCard(r rowScanner) (domain.Card, error) {
	var (
		card        domain.Card
		cardType    string
		clozeText   sql.NullString
		tagsJSON    string
		sourceID    sql.NullString
		contentHash sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	err := r.Scan(&card.ID, &card.DeckID, &cardType, &card.Front, &card.Back,
		&clozeText, &tagsJSON, &sourceID, &contentHash, &createdAt, &updatedAt)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to scan card row: %w", err)
	}
	card.Type = domain.CardType(cardType)
	card.ClozeText = clozeText.String
	card.Tags = unmarshalTags(tagsJSON)
	card.SourceID = sourceID.String
	card.ContentHash = contentHash.String
	card.CreatedAt = s.fromMillis(createdAt)
	card.UpdatedAt = s.fromMillis(updatedAt)
	return card, nil
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// unmarshalTags parses a persisted tag list. A corrupt value degrades
// to an empty list rather than failing the whole card load.
func unmarshalTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
