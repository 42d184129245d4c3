package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const deckColumns = `id, user_id, name, revision_length, flip_mode`

// DeckUpdate carries the fields of a partial deck update. Nil fields are left
// unchanged.
type DeckUpdate struct {
	Name           *string
	RevisionLength *int
	FlipMode       *domain.FlipMode
}

// ListDecks returns the user's decks ordered by id.
func (db *DB) ListDecks(ctx context.Context, userID int64) ([]domain.Deck, error) {
	decks := []domain.Deck{}
	err := db.conn.SelectContext(ctx, &decks, db.rebind(`
		SELECT `+deckColumns+` FROM decks WHERE user_id = ? ORDER BY id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks for user %d: %w", userID, err)
	}
	return decks, nil
}

// GetDeck retrieves one of the user's decks.
func (db *DB) GetDeck(ctx context.Context, userID, deckID int64) (*domain.Deck, error) {
	var d domain.Deck
	err := db.conn.GetContext(ctx, &d, db.rebind(`
		SELECT `+deckColumns+` FROM decks WHERE id = ? AND user_id = ?
	`), deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck %d: %w", deckID, notFound(err))
	}
	return &d, nil
}

// InsertDeck creates a deck for d.UserID and fills in d.ID.
func (db *DB) InsertDeck(ctx context.Context, d *domain.Deck) error {
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO decks (user_id, name, revision_length, flip_mode)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), d.UserID, d.Name, d.RevisionLength, d.FlipMode).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert deck %q: %w", d.Name, err)
	}
	return nil
}

// UpdateDeck applies a partial update to one of the user's decks and returns
// the result.
func (db *DB) UpdateDeck(ctx context.Context, userID, deckID int64, u DeckUpdate) (*domain.Deck, error) {
	deck, err := db.GetDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if u.Name != nil {
		deck.Name = *u.Name
	}
	if u.RevisionLength != nil {
		deck.RevisionLength = *u.RevisionLength
	}
	if u.FlipMode != nil {
		deck.FlipMode = *u.FlipMode
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(`
		UPDATE decks SET name = ?, revision_length = ?, flip_mode = ?
		WHERE id = ? AND user_id = ?
	`), deck.Name, deck.RevisionLength, deck.FlipMode, deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update deck %d: %w", deckID, err)
	}
	return deck, nil
}

// DeleteDeck removes one of the user's decks along with its cards and sources.
func (db *DB) DeleteDeck(ctx context.Context, userID, deckID int64) error {
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		var owned int
		err := tx.GetContext(ctx, &owned, db.rebind(`SELECT COUNT(*) FROM decks WHERE id = ? AND user_id = ?`), deckID, userID)
		if err != nil {
			return err
		}
		if owned == 0 {
			return domain.ErrNotFound
		}
		for _, q := range []string{
			`DELETE FROM cards WHERE deck_id = ?`,
			`DELETE FROM sources WHERE deck_id = ?`,
			`DELETE FROM decks WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, db.rebind(q), deckID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete deck %d: %w", deckID, err)
	}
	return nil
}
