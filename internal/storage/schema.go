package storage

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE
);

-- A user holds at most one session; logging in again replaces it.
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    created DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS decks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    revision_length SMALLINT NOT NULL DEFAULT 10,
    flip_mode TEXT NOT NULL DEFAULT 'front' CHECK (flip_mode IN ('front', 'back', 'both'))
);

-- The 'sources' table tracks where imported cards came from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    revision_weight SMALLINT NOT NULL CHECK (revision_weight BETWEEN 1 AND 32767),
    hash TEXT NOT NULL DEFAULT '',
    source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS cards_deck_id ON cards(deck_id);
-- Imported cards are unique per deck. Cards added by hand have no hash.
CREATE UNIQUE INDEX IF NOT EXISTS cards_deck_hash ON cards(deck_id, hash) WHERE hash <> '';
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS sessions (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    created TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS decks (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    revision_length SMALLINT NOT NULL DEFAULT 10,
    flip_mode TEXT NOT NULL DEFAULT 'front' CHECK (flip_mode IN ('front', 'back', 'both'))
);

CREATE TABLE IF NOT EXISTS sources (
    id SERIAL PRIMARY KEY,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cards (
    id SERIAL PRIMARY KEY,
    deck_id INTEGER NOT NULL REFERENCES decks(id) ON DELETE CASCADE,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    revision_weight SMALLINT NOT NULL CHECK (revision_weight BETWEEN 1 AND 32767),
    hash TEXT NOT NULL DEFAULT '',
    source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS cards_deck_id ON cards(deck_id);
-- Imported cards are unique per deck. Cards added by hand have no hash.
CREATE UNIQUE INDEX IF NOT EXISTS cards_deck_hash ON cards(deck_id, hash) WHERE hash <> '';
`
