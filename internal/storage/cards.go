package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

const cardColumns = `cards.id, cards.deck_id, cards.front, cards.back, cards.revision_weight, cards.hash, cards.source_id`

// CardQuery selects one page of a deck's cards.
type CardQuery struct {
	Page       int
	PerPage    int
	SearchTerm string
}

// ListCards returns a page of the user's cards in a deck whose front or back
// contains the search term, ignoring case.
func (db *DB) ListCards(ctx context.Context, userID, deckID int64, q CardQuery) (*domain.CardPage, error) {
	if q.PerPage <= 0 {
		q.PerPage = 1
	}
	q.Page = max(q.Page, 0)
	pattern := "%" + strings.ToLower(q.SearchTerm) + "%"

	const where = `
		FROM cards JOIN decks ON decks.id = cards.deck_id
		WHERE cards.deck_id = ? AND decks.user_id = ?
		AND (LOWER(cards.front) LIKE ? OR LOWER(cards.back) LIKE ?)`

	var total int
	if err := db.conn.GetContext(ctx, &total, db.rebind(`SELECT COUNT(*) `+where), deckID, userID, pattern, pattern); err != nil {
		return nil, fmt.Errorf("failed to count cards in deck %d: %w", deckID, err)
	}

	page := &domain.CardPage{
		Records:    []domain.Card{},
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: (total + q.PerPage - 1) / q.PerPage,
	}
	err := db.conn.SelectContext(ctx, &page.Records, db.rebind(`SELECT `+cardColumns+where+`
		ORDER BY cards.id LIMIT ? OFFSET ?`), deckID, userID, pattern, pattern, q.PerPage, q.Page*q.PerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards in deck %d: %w", deckID, err)
	}
	return page, nil
}

// GetCard retrieves a card from one of the user's decks.
func (db *DB) GetCard(ctx context.Context, userID, deckID, cardID int64) (*domain.Card, error) {
	var c domain.Card
	err := db.conn.GetContext(ctx, &c, db.rebind(`
		SELECT `+cardColumns+`
		FROM cards JOIN decks ON decks.id = cards.deck_id
		WHERE cards.id = ? AND cards.deck_id = ? AND decks.user_id = ?
	`), cardID, deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %d: %w", cardID, notFound(err))
	}
	return &c, nil
}

// CardForUser retrieves a card by id if it belongs to one of the user's decks.
func (db *DB) CardForUser(ctx context.Context, userID, cardID int64) (*domain.Card, error) {
	var c domain.Card
	err := db.conn.GetContext(ctx, &c, db.rebind(`
		SELECT `+cardColumns+`
		FROM cards JOIN decks ON decks.id = cards.deck_id
		WHERE cards.id = ? AND decks.user_id = ?
	`), cardID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %d: %w", cardID, notFound(err))
	}
	return &c, nil
}

// CardsInDeck returns every card of one of the user's decks, the candidate set
// for a revision session.
func (db *DB) CardsInDeck(ctx context.Context, userID, deckID int64) ([]domain.Card, error) {
	cards := []domain.Card{}
	err := db.conn.SelectContext(ctx, &cards, db.rebind(`
		SELECT `+cardColumns+`
		FROM cards JOIN decks ON decks.id = cards.deck_id
		WHERE cards.deck_id = ? AND decks.user_id = ?
	`), deckID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards of deck %d: %w", deckID, err)
	}
	return cards, nil
}

// InsertCard adds c to its deck and fills in c.ID. The weight must already be
// within the allowed range.
func (db *DB) InsertCard(ctx context.Context, c *domain.Card) error {
	if c.RevisionWeight < domain.MinWeight || c.RevisionWeight > domain.MaxWeight {
		return fmt.Errorf("failed to insert card: %w: %d", domain.ErrWeightOutOfRange, c.RevisionWeight)
	}
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO cards (deck_id, front, back, revision_weight, hash, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), c.DeckID, c.Front, c.Back, c.RevisionWeight, c.Hash, c.SourceID).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert card into deck %d: %w", c.DeckID, err)
	}
	return nil
}

// InsertCardIfAbsent adds an imported card unless its deck already holds a
// card with the same hash. It reports whether a row was written.
func (db *DB) InsertCardIfAbsent(ctx context.Context, c *domain.Card) (bool, error) {
	if c.Hash == "" {
		return false, fmt.Errorf("failed to insert card into deck %d: missing hash", c.DeckID)
	}
	if c.RevisionWeight < domain.MinWeight || c.RevisionWeight > domain.MaxWeight {
		return false, fmt.Errorf("failed to insert card: %w: %d", domain.ErrWeightOutOfRange, c.RevisionWeight)
	}
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO cards (deck_id, front, back, revision_weight, hash, source_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck_id, hash) WHERE hash <> '' DO NOTHING
		RETURNING id
	`), c.DeckID, c.Front, c.Back, c.RevisionWeight, c.Hash, c.SourceID).Scan(&c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert card into deck %d: %w", c.DeckID, err)
	}
	return true, nil
}

// UpdateCardText changes the text of a card in one of the user's decks.
func (db *DB) UpdateCardText(ctx context.Context, userID, deckID, cardID int64, front, back string) (*domain.Card, error) {
	c, err := db.GetCard(ctx, userID, deckID, cardID)
	if err != nil {
		return nil, err
	}
	_, err = db.conn.ExecContext(ctx, db.rebind(`UPDATE cards SET front = ?, back = ? WHERE id = ?`), front, back, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", cardID, err)
	}
	c.Front, c.Back = front, back
	return c, nil
}

// DeleteCard removes a card from one of the user's decks.
func (db *DB) DeleteCard(ctx context.Context, userID, deckID, cardID int64) error {
	if _, err := db.GetCard(ctx, userID, deckID, cardID); err != nil {
		return err
	}
	return db.DeleteCardByID(ctx, cardID)
}

// DeleteCardByID removes a card without any ownership check.
func (db *DB) DeleteCardByID(ctx context.Context, cardID int64) error {
	if _, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM cards WHERE id = ?`), cardID); err != nil {
		return fmt.Errorf("failed to delete card %d: %w", cardID, err)
	}
	return nil
}

// GetCardsBySourceID retrieves all cards imported from a source.
func (db *DB) GetCardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	cards := []domain.Card{}
	err := db.conn.SelectContext(ctx, &cards, db.rebind(`
		SELECT `+cardColumns+` FROM cards WHERE source_id = ?
	`), sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	return cards, nil
}
