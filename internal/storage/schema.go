package storage

const schema = `
-- The 'decks' table forms a forest via parent_id; NULL marks a root.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    parent_id TEXT REFERENCES decks(id),
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decks_parent ON decks(parent_id);

-- The 'cards' table stores flashcard content. source_id and content_hash
-- are set only on cards imported by sync.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks(id),
    type TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    cloze_text TEXT,
    tags_json TEXT NOT NULL DEFAULT '[]',
    source_id TEXT REFERENCES sources(id),
    content_hash TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);
CREATE INDEX IF NOT EXISTS idx_cards_source ON cards(source_id);

-- One scheduling row per card, created alongside the card.
CREATE TABLE IF NOT EXISTS scheduling (
    card_id TEXT PRIMARY KEY REFERENCES cards(id),
    n INTEGER NOT NULL,
    interval_days INTEGER NOT NULL,
    ef REAL NOT NULL,
    due_at INTEGER NOT NULL,
    last_reviewed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_scheduling_due ON scheduling(due_at);

-- Append-only review audit trail; the sole input to streak/retention.
CREATE TABLE IF NOT EXISTS review_logs (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL REFERENCES cards(id),
    reviewed_at INTEGER NOT NULL,
    q INTEGER NOT NULL,
    prev_due_at INTEGER,
    new_due_at INTEGER,
    duration_ms INTEGER
);
CREATE INDEX IF NOT EXISTS idx_review_logs_card ON review_logs(card_id);
CREATE INDEX IF NOT EXISTS idx_review_logs_reviewed ON review_logs(reviewed_at);

-- Ephemeral session bookkeeping; nothing else references it.
CREATE TABLE IF NOT EXISTS review_sessions (
    id TEXT PRIMARY KEY,
    deck_id TEXT REFERENCES decks(id),
    started_at INTEGER NOT NULL,
    ended_at INTEGER,
    cards_reviewed INTEGER NOT NULL DEFAULT 0,
    cards_repeated INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_deck ON review_sessions(deck_id);

-- Registered card collections reconciled by sync: a local directory or
-- a git repository of markdown card files.
CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    last_synced_at INTEGER
);
`
