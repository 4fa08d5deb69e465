// Package sync reconciles registered card sources (local directories or
// git repositories of markdown card files) into the store. A file's
// directory path relative to its source root becomes a deck path, so a
// collection's folder layout maps onto the deck hierarchy.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Pleko-script/CardCrafter/internal/cardfile"
	"github.com/Pleko-script/CardCrafter/internal/cardhash"
	"github.com/Pleko-script/CardCrafter/internal/domain"
	"github.com/Pleko-script/CardCrafter/internal/gitsource"
	"github.com/Pleko-script/CardCrafter/internal/storage"
)

// Run reconciles every registered source. Problems with one source are
// logged and skipped so the rest still sync; Run only fails when the
// source list itself cannot be loaded or the repos directory cannot be
// created.
func Run(store *storage.Store, reposDir string) error {
	slog.Info("starting sync for all sources")
	sources, err := store.ListSources()
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil
	}

	if err := os.MkdirAll(reposDir, 0o755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		root := source.Path
		if source.Type == domain.SourceGit {
			localPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("cannot determine local path for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localPath); err != nil {
				slog.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			root = localPath
		}

		if err := reconcile(store, source, root); err != nil {
			slog.Error("source reconciliation failed", "path", source.Path, "error", err)
		}
	}
	slog.Info("sync complete")
	return nil
}

// reconcile walks one source root, importing new cards and sweeping
// cards whose content no longer appears in the source.
func reconcile(store *storage.Store, source domain.Source, root string) error {
	foundHashes := map[string]bool{}
	var imported, parseErrors int

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		entries, parseErr := cardfile.ParseFile(path)
		if parseErr != nil {
			parseErrors++
			slog.Warn("failed to parse card file", "path", path, "error", parseErr)
			return nil
		}
		if len(entries) == 0 {
			return nil
		}

		deck, err := deckForFile(store, root, path)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			hash := cardhash.Hash(entry.Front, entry.Back, "")
			foundHashes[hash] = true

			existing, err := store.FindCardBySourceHash(source.ID, hash)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			_, err = store.CreateCard(domain.CreateCardInput{
				DeckID:      deck.ID,
				Front:       entry.Front,
				Back:        entry.Back,
				Tags:        entry.Tags,
				SourceID:    source.ID,
				ContentHash: hash,
			})
			if err != nil {
				return fmt.Errorf("failed to import card into deck %s: %w", deck.Name, err)
			}
			imported++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("failed to walk %s: %w", root, walkErr)
	}

	// Sweep cards this source imported whose content disappeared.
	existing, err := store.CardsBySource(source.ID)
	if err != nil {
		return err
	}
	var orphaned int
	for _, card := range existing {
		if foundHashes[card.ContentHash] {
			continue
		}
		if err := store.DeleteCard(card.ID); err != nil {
			slog.Warn("failed to delete orphaned card", "card", card.ID, "error", err)
			continue
		}
		orphaned++
	}

	if err := store.TouchSourceSynced(source.ID); err != nil {
		slog.Warn("failed to stamp source sync time", "source", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"imported", imported,
		"orphaned_deleted", orphaned,
		"parse_errors", parseErrors,
	)
	return nil
}

// deckForFile maps a card file's directory, relative to the source
// root, onto a deck path. Files at the root land in the default deck.
func deckForFile(store *storage.Store, root, path string) (domain.Deck, error) {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	deckPath := storage.DefaultDeckName
	if rel != "." {
		deckPath = filepath.ToSlash(rel)
	}
	return store.CreateDeckPath(deckPath)
}

// gitURLToLocalPath derives a stable checkout directory under baseDir
// from an https or scp-style git URL.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	sanitized := strings.TrimSuffix(parsed.Path, ".git")
	return filepath.Join(baseDir, parsed.Host, sanitized), nil
}
