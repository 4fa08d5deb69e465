package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Pleko-script/CardCrafter/internal/domain"
)

// AddSource registers a card collection for sync. Git URLs (anything
// ending in .git, or with a git@/https:// prefix) become git sources;
// everything else is a local directory.
func (s *Store) AddSource(path string) (domain.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.Source{}, fmt.Errorf("%w: source path is required", domain.ErrValidation)
	}

	sourceType := domain.SourceLocal
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		sourceType = domain.SourceGit
	}

	src := domain.Source{ID: newID(), Type: sourceType, Path: path}
	_, err := s.conn.Exec(
		`INSERT INTO sources (id, type, path, last_synced_at) VALUES (?, ?, ?, NULL)`,
		src.ID, string(src.Type), src.Path,
	)
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to insert source %q: %w", path, err)
	}
	return src, nil
}

// ListSources returns all registered sources.
func (s *Store) ListSources() ([]domain.Source, error) {
	rows, err := s.conn.Query(`SELECT id, type, path, last_synced_at FROM sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			src        domain.Source
			sourceType string
			syncedAt   sql.NullInt64
		)
		if err := rows.Scan(&src.ID, &sourceType, &src.Path, &syncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		src.Type = domain.SourceType(sourceType)
		if syncedAt.Valid {
			t := s.fromMillis(syncedAt.Int64)
			src.LastSyncedAt = &t
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// DeleteSource unregisters a source. Cards it imported stay in their
// decks but lose the source link, turning them into hand-authored cards
// that future syncs will not sweep.
func (s *Store) DeleteSource(id string) error {
	var exists int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM sources WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check source %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: source %s", domain.ErrNotFound, id)
	}

	return s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE cards SET source_id = NULL, content_hash = NULL WHERE source_id = ?`, id,
		); err != nil {
			return fmt.Errorf("failed to unlink cards of source %s: %w", id, err)
		}
		if _, err := tx.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete source %s: %w", id, err)
		}
		return nil
	})
}

// TouchSourceSynced stamps the source's last successful sync time.
func (s *Store) TouchSourceSynced(id string) error {
	_, err := s.conn.Exec(`UPDATE sources SET last_synced_at = ? WHERE id = ?`,
		toMillis(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to touch source %s: %w", id, err)
	}
	return nil
}

// CardsBySource returns the cards a source imported, keyed for the
// orphan sweep.
func (s *Store) CardsBySource(sourceID string) ([]domain.Card, error) {
	rows, err := s.conn.Query(
		`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for source %s: %w", sourceID, err)
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

// FindCardBySourceHash looks up the imported card with the given
// content hash under a source; nil when none exists.
func (s *Store) FindCardBySourceHash(sourceID, hash string) (*domain.Card, error) {
	row := s.conn.QueryRow(
		`SELECT `+cardColumns+` FROM cards WHERE source_id = ? AND content_hash = ?`,
		sourceID, hash,
	)
	card, err := s.scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}
