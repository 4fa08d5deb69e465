package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

// ListDecks returns all decks ordered by name.
func (s *Store) ListDecks() ([]domain.Deck, error) {
	rows, err := s.conn.Query(`SELECT id, parent_id, name, created_at FROM decks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		deck, err := s.scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

// GetDeck returns the deck with the given id, or domain.ErrNotFound.
func (s *Store) GetDeck(id string) (domain.Deck, error) {
	return s.getDeck(s.conn, id)
}

// CreateDeck creates a deck from the given input. When Path is set it
// wins: the deck is created by path, with a non-empty Name appended as
// the final segment. Otherwise a trimmed non-empty Name is required and
// ParentID, when set, must name an existing deck.
func (s *Store) CreateDeck(in domain.CreateDeckInput) (domain.Deck, error) {
	name := strings.TrimSpace(in.Name)
	path := strings.TrimSpace(in.Path)

	if path != "" {
		if name != "" {
			path = strings.TrimRight(path, "/") + "/" + name
		}
		return s.CreateDeckPath(path)
	}

	if name == "" {
		return domain.Deck{}, fmt.Errorf("%w: deck name is required", domain.ErrValidation)
	}
	if in.ParentID != "" {
		if _, err := s.GetDeck(in.ParentID); err != nil {
			return domain.Deck{}, err
		}
	}

	deck := domain.Deck{
		ID:        newID(),
		ParentID:  in.ParentID,
		Name:      name,
		CreatedAt: s.fromMillis(toMillis(s.now())),
	}
	_, err := s.conn.Exec(
		`INSERT INTO decks (id, parent_id, name, created_at) VALUES (?, ?, ?, ?)`,
		deck.ID, nullable(deck.ParentID), deck.Name, toMillis(deck.CreatedAt),
	)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to insert deck %q: %w", name, err)
	}
	return deck, nil
}

// CreateDeckPath finds or creates the chain of decks named by the
// slash-separated path, returning the final deck. Segment matching is
// case-sensitive and scoped to the running parent, so calling it twice
// with the same path creates nothing new. A path with no usable
// segments is a validation error.
func (s *Store) CreateDeckPath(path string) (domain.Deck, error) {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return domain.Deck{}, fmt.Errorf("%w: deck path is empty", domain.ErrValidation)
	}

	var deck domain.Deck
	parentID := ""
	for _, name := range segments {
		existing, err := s.findChildByName(parentID, name)
		if err == nil {
			deck = existing
			parentID = existing.ID
			continue
		}
		if !isNotFound(err) {
			return domain.Deck{}, err
		}

		deck = domain.Deck{
			ID:        newID(),
			ParentID:  parentID,
			Name:      name,
			CreatedAt: s.fromMillis(toMillis(s.now())),
		}
		_, err = s.conn.Exec(
			`INSERT INTO decks (id, parent_id, name, created_at) VALUES (?, ?, ?, ?)`,
			deck.ID, nullable(deck.ParentID), deck.Name, toMillis(deck.CreatedAt),
		)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("failed to insert deck %q: %w", name, err)
		}
		parentID = deck.ID
	}
	return deck, nil
}

// MoveDeck reparents a deck. An empty newParentID makes it a root.
// Moving a deck into itself or into one of its own descendants is a
// cycle error; on failure the tree is untouched.
func (s *Store) MoveDeck(deckID, newParentID string) (domain.Deck, error) {
	deck, err := s.GetDeck(deckID)
	if err != nil {
		return domain.Deck{}, err
	}

	if deckID == newParentID {
		return domain.Deck{}, fmt.Errorf("%w: cannot move deck into itself", domain.ErrCycle)
	}
	if newParentID != "" {
		if _, err := s.GetDeck(newParentID); err != nil {
			return domain.Deck{}, err
		}
		descendant, err := s.isDescendant(deckID, newParentID)
		if err != nil {
			return domain.Deck{}, err
		}
		if descendant {
			return domain.Deck{}, fmt.Errorf("%w: cannot move deck into its own descendant", domain.ErrCycle)
		}
	}

	_, err = s.conn.Exec(`UPDATE decks SET parent_id = ? WHERE id = ?`, nullable(newParentID), deckID)
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to move deck %s: %w", deckID, err)
	}
	deck.ParentID = newParentID
	return deck, nil
}

// DeleteDeck removes a deck. Cascade mode removes the deck, every
// descendant deck, and all cards (with scheduling and review logs)
// owned by any of them. Reparent mode removes only the named deck and
// promotes its direct children to the deck's former parent. Either way
// the whole effect is one transaction.
func (s *Store) DeleteDeck(deckID string, mode domain.DeleteMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown delete mode %q", domain.ErrValidation, mode)
	}
	deck, err := s.GetDeck(deckID)
	if err != nil {
		return err
	}

	// The descendant set is read before the transaction opens: the pool
	// holds a single connection, so a query on s.conn inside the tx
	// closure would block on it. Single-writer access keeps the
	// pre-read set consistent with what the transaction deletes.
	var descendants []string
	if mode == domain.DeleteCascade {
		descendants, err = s.descendantIDs(deckID)
		if err != nil {
			return err
		}
	}

	return s.inTx(func(tx *sql.Tx) error {
		if mode == domain.DeleteReparent {
			_, err := tx.Exec(`UPDATE decks SET parent_id = ? WHERE parent_id = ?`,
				nullable(deck.ParentID), deckID)
			if err != nil {
				return fmt.Errorf("failed to reparent children of deck %s: %w", deckID, err)
			}
			return s.deleteDecks(tx, []string{deckID})
		}
		return s.deleteDecks(tx, append([]string{deckID}, descendants...))
	})
}

// DeckDeletePreview reports what a cascade delete of the deck would
// remove: direct child count, total cards across the subtree, and the
// names of every affected deck. Read-only.
func (s *Store) DeckDeletePreview(deckID string) (domain.DeckDeletePreview, error) {
	deck, err := s.GetDeck(deckID)
	if err != nil {
		return domain.DeckDeletePreview{}, err
	}

	descendants, err := s.descendantIDs(deckID)
	if err != nil {
		return domain.DeckDeletePreview{}, err
	}
	affected := append([]string{deckID}, descendants...)

	preview := domain.DeckDeletePreview{DeckName: deck.Name}
	err = s.conn.QueryRow(`SELECT COUNT(*) FROM decks WHERE parent_id = ?`, deckID).
		Scan(&preview.ChildDeckCount)
	if err != nil {
		return domain.DeckDeletePreview{}, fmt.Errorf("failed to count children of deck %s: %w", deckID, err)
	}

	ph := placeholders(len(affected))
	err = s.conn.QueryRow(`SELECT COUNT(*) FROM cards WHERE deck_id IN (`+ph+`)`, toArgs(affected)...).
		Scan(&preview.TotalCardCount)
	if err != nil {
		return domain.DeckDeletePreview{}, fmt.Errorf("failed to count cards for deck %s: %w", deckID, err)
	}

	rows, err := s.conn.Query(`SELECT name FROM decks WHERE id IN (`+ph+`)`, toArgs(affected)...)
	if err != nil {
		return domain.DeckDeletePreview{}, fmt.Errorf("failed to list affected decks for %s: %w", deckID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return domain.DeckDeletePreview{}, fmt.Errorf("failed to scan deck name: %w", err)
		}
		preview.AffectedDeckNames = append(preview.AffectedDeckNames, name)
	}
	return preview, rows.Err()
}

// deleteDecks removes the given decks and everything they own: review
// logs, scheduling rows, cards, and sessions scoped to them.
func (s *Store) deleteDecks(tx *sql.Tx, deckIDs []string) error {
	ph := placeholders(len(deckIDs))
	args := toArgs(deckIDs)

	stmts := []string{
		`DELETE FROM review_logs WHERE card_id IN (SELECT id FROM cards WHERE deck_id IN (` + ph + `))`,
		`DELETE FROM scheduling WHERE card_id IN (SELECT id FROM cards WHERE deck_id IN (` + ph + `))`,
		`DELETE FROM cards WHERE deck_id IN (` + ph + `)`,
		`DELETE FROM review_sessions WHERE deck_id IN (` + ph + `)`,
		`DELETE FROM decks WHERE id IN (` + ph + `)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("failed to delete decks: %w", err)
		}
	}
	return nil
}

// descendantIDs enumerates every deck below deckID, breadth first. The
// visited set guards against malformed cyclic data in the table; a
// well-formed tree never triggers it.
func (s *Store) descendantIDs(deckID string) ([]string, error) {
	var result []string
	queue := []string{deckID}
	visited := map[string]bool{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		rows, err := s.conn.Query(`SELECT id FROM decks WHERE parent_id = ?`, current)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of deck %s: %w", current, err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan deck id: %w", err)
			}
			result = append(result, id)
			queue = append(queue, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

// isDescendant reports whether candidate sits below ancestor, walking
// parent pointers upward with a visited set as a cycle guard.
func (s *Store) isDescendant(ancestorID, candidateID string) (bool, error) {
	current := candidateID
	visited := map[string]bool{}

	for current != "" {
		if visited[current] {
			return false, nil
		}
		visited[current] = true
		if current == ancestorID {
			return true, nil
		}

		var parent sql.NullString
		err := s.conn.QueryRow(`SELECT parent_id FROM decks WHERE id = ?`, current).Scan(&parent)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to walk ancestry of deck %s: %w", current, err)
		}
		current = parent.String
	}
	return false, nil
}

// findChildByName finds the deck with the exact name under the given
// parent (empty parentID scopes to roots).
func (s *Store) findChildByName(parentID, name string) (domain.Deck, error) {
	row := s.conn.QueryRow(
		`SELECT id, parent_id, name, created_at FROM decks WHERE name = ? AND parent_id IS ?`,
		name, nullable(parentID),
	)
	return s.scanDeckRow(row, name)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanDeck(r rowScanner) (domain.Deck, error) {
	var (
		deck      domain.Deck
		parentID  sql.NullString
		createdAt int64
	)
	if err := r.Scan(&deck.ID, &parentID, &deck.Name, &createdAt); err != nil {
		return domain.Deck{}, fmt.Errorf("failed to scan deck row: %w", err)
	}
	deck.ParentID = parentID.String
	deck.CreatedAt = s.fromMillis(createdAt)
	return deck, nil
}

func (s *Store) scanDeckRow(row *sql.Row, ref string) (domain.Deck, error) {
	var (
		deck      domain.Deck
		parentID  sql.NullString
		createdAt int64
	)
	err := row.Scan(&deck.ID, &parentID, &deck.Name, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Deck{}, fmt.Errorf("%w: deck %s", domain.ErrNotFound, ref)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to load deck %s: %w", ref, err)
	}
	deck.ParentID = parentID.String
	deck.CreatedAt = s.fromMillis(createdAt)
	return deck, nil
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *Store) getDeck(q querier, id string) (domain.Deck, error) {
	row := q.QueryRow(`SELECT id, parent_id, name, created_at FROM decks WHERE id = ?`, id)
	return s.scanDeckRow(row, id)
}
