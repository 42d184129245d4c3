package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// ReadWeight returns the stored revision weight of a card.
func (db *DB) ReadWeight(ctx context.Context, cardID int64) (int, error) {
	var w int
	err := db.conn.GetContext(ctx, &w, db.rebind(`SELECT revision_weight FROM cards WHERE id = ?`), cardID)
	if err != nil {
		return 0, fmt.Errorf("failed to read weight of card %d: %w", cardID, notFound(err))
	}
	return w, nil
}

// WriteWeight overwrites a card's revision weight.
func (db *DB) WriteWeight(ctx context.Context, cardID int64, weight int) error {
	if err := checkWeight(weight); err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, db.rebind(`UPDATE cards SET revision_weight = ? WHERE id = ?`), weight, cardID)
	if err != nil {
		return fmt.Errorf("failed to write weight of card %d: %w", cardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write weight of card %d: %w", cardID, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to write weight of card %d: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// CompareAndSwapWeight sets a card's weight to next only if it is still prev.
// It reports false when another writer got there first.
func (db *DB) CompareAndSwapWeight(ctx context.Context, cardID int64, prev, next int) (bool, error) {
	if err := checkWeight(next); err != nil {
		return false, err
	}
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE cards SET revision_weight = ? WHERE id = ? AND revision_weight = ?
	`), next, cardID, prev)
	if err != nil {
		return false, fmt.Errorf("failed to swap weight of card %d: %w", cardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to swap weight of card %d: %w", cardID, err)
	}
	return n == 1, nil
}

func checkWeight(w int) error {
	if w < domain.MinWeight || w > domain.MaxWeight {
		return fmt.Errorf("%w: %d", domain.ErrWeightOutOfRange, w)
	}
	return nil
}
