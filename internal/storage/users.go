package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// now is the clock used for stored timestamps, truncated so SQLite's text
// timestamps compare correctly.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// InsertUser creates a user and returns it.
func (db *DB) InsertUser(ctx context.Context, username string) (*domain.User, error) {
	u := domain.User{Username: username}
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO users (username) VALUES (?) RETURNING id
	`), username).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", username, err)
	}
	return &u, nil
}

// FindUserByName retrieves a user by username.
func (db *DB) FindUserByName(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := db.conn.GetContext(ctx, &u, db.rebind(`SELECT id, username FROM users WHERE username = ?`), username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", username, notFound(err))
	}
	return &u, nil
}

// CreateSession replaces any session the user holds with a fresh one.
func (db *DB) CreateSession(ctx context.Context, userID int64) (*domain.Session, error) {
	s := domain.Session{UserID: userID, Token: uuid.NewString(), Created: now()}
	err := db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM sessions WHERE user_id = ?`), userID); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, db.rebind(`
			INSERT INTO sessions (user_id, token, created) VALUES (?, ?, ?) RETURNING id
		`), s.UserID, s.Token, s.Created).Scan(&s.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session for user %d: %w", userID, err)
	}
	return &s, nil
}

// FindSession returns the session for token if it was created after notBefore.
// Unknown and expired tokens both report domain.ErrNotFound.
func (db *DB) FindSession(ctx context.Context, token string, notBefore time.Time) (*domain.Session, error) {
	var s domain.Session
	err := db.conn.GetContext(ctx, &s, db.rebind(`
		SELECT id, user_id, token, created FROM sessions WHERE token = ?
	`), token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", notFound(err))
	}
	if !s.Created.After(notBefore) {
		return nil, fmt.Errorf("session %d expired: %w", s.ID, domain.ErrNotFound)
	}
	return &s, nil
}

// DeleteSession removes the session holding token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	if _, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM sessions WHERE token = ?`), token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessionsBefore purges sessions created before cutoff and returns how
// many were removed.
func (db *DB) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM sessions WHERE created < ?`), cutoff.UTC().Truncate(time.Second))
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sessions: %w", err)
	}
	return n, nil
}
