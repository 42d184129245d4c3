package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const sourceColumns = `id, deck_id, path, type, last_scanned`

// InsertSource registers a source path for a deck and returns its ID.
func (db *DB) InsertSource(ctx context.Context, deckID int64, path, sourceType string) (int64, error) {
	var id int64
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO sources (deck_id, path, type)
		VALUES (?, ?, ?)
		RETURNING id
	`), deckID, path, sourceType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(ctx context.Context, path string) (*domain.Source, error) {
	var s domain.Source
	err := db.conn.GetContext(ctx, &s, db.rebind(`SELECT `+sourceColumns+` FROM sources WHERE path = ?`), path)
	if err != nil {
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, notFound(err))
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources(ctx context.Context) ([]domain.Source, error) {
	sources := []domain.Source{}
	if err := db.conn.SelectContext(ctx, &sources, `SELECT `+sourceColumns+` FROM sources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	return sources, nil
}

// ListSources returns the sources of one of the user's decks.
func (db *DB) ListSources(ctx context.Context, userID, deckID int64) ([]domain.Source, error) {
	sources := []domain.Source{}
	err := db.conn.SelectContext(ctx, &sources, db.rebind(`
		SELECT sources.id, sources.deck_id, sources.path, sources.type, sources.last_scanned
		FROM sources JOIN decks ON decks.id = sources.deck_id
		WHERE sources.deck_id = ? AND decks.user_id = ?
		ORDER BY sources.id
	`), deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources of deck %d: %w", deckID, err)
	}
	return sources, nil
}

// GetSourceForUser retrieves a source if its deck belongs to the user.
func (db *DB) GetSourceForUser(ctx context.Context, userID, sourceID int64) (*domain.Source, error) {
	var s domain.Source
	err := db.conn.GetContext(ctx, &s, db.rebind(`
		SELECT sources.id, sources.deck_id, sources.path, sources.type, sources.last_scanned
		FROM sources JOIN decks ON decks.id = sources.deck_id
		WHERE sources.id = ? AND decks.user_id = ?
	`), sourceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", sourceID, notFound(err))
	}
	return &s, nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE sources SET last_scanned = ? WHERE id = ?`), now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source. Cards imported from it stay in the deck.
func (db *DB) DeleteSource(ctx context.Context, sourceID int64) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE cards SET source_id = NULL WHERE source_id = ?`), sourceID)
	if err != nil {
		return fmt.Errorf("failed to detach cards from source %d: %w", sourceID, err)
	}
	if _, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM sources WHERE id = ?`), sourceID); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", sourceID, err)
	}
	return nil
}
